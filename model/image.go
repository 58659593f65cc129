package model

// Image holds raw image bytes as delivered by a content source. Decoding
// and display are left to the consumer.
type Image struct {
	Data []byte
	Ext  string
	URL  string
}

// Empty reports whether the image carries no pixel data.
func (img *Image) Empty() bool {
	return img == nil || len(img.Data) == 0
}
