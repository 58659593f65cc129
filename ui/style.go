package ui

import (
	gloss "github.com/charmbracelet/lipgloss"
)

const (
	TabSpacing    = 4
	TabPaddingTop = 1
	TabPaddingBot = 0
	ListMaxWidth  = 72
)

// Tab styles
var (
	ActiveTabStyle = gloss.NewStyle().
			Foreground(gloss.Color("#89b4fa")).
			Padding(TabPaddingTop, TabSpacing, TabPaddingBot, TabSpacing).
			Align(gloss.Center)

	InactiveTabStyle = gloss.NewStyle().
				Foreground(gloss.Color("#585b70")).
				Padding(TabPaddingTop, TabSpacing, TabPaddingBot, TabSpacing).
				Align(gloss.Center)
)

// List container style
var ListStyle = gloss.NewStyle().
	Align(gloss.Left).
	Padding(1, 4)

// Listed item styles
var (
	SelectedTitleStyle = gloss.NewStyle().
				Foreground(gloss.Color("#89b4fa")).
				BorderLeft(true).
				BorderStyle(gloss.NormalBorder()).
				BorderForeground(gloss.Color("#89b4fa")).
				PaddingLeft(1).
				Bold(true)

	SelectedDescStyle = gloss.NewStyle().
				Foreground(gloss.Color("#bac2de")).
				BorderLeft(true).
				BorderStyle(gloss.NormalBorder()).
				BorderForeground(gloss.Color("#89b4fa")).
				PaddingLeft(1)

	NormalTitleStyle = gloss.NewStyle().
				Foreground(gloss.Color("#585b70")).
				PaddingLeft(2)

	NormalDescStyle = gloss.NewStyle().
			Foreground(gloss.Color("#585b70")).
			PaddingLeft(2)
)

var (
	PromptStyle = gloss.NewStyle().
			Foreground(gloss.Color("#89b4fa"))

	TitleBarStyle = gloss.NewStyle().
			Foreground(gloss.Color("#89b4fa")).
			Bold(true).
			PaddingLeft(4).
			PaddingTop(1)

	StatusStyle = gloss.NewStyle().
			Foreground(gloss.Color("#89b4fa")).
			PaddingLeft(4).
			PaddingRight(4).
			PaddingTop(1)

	StatusMutedStyle = gloss.NewStyle().
				Foreground(gloss.Color("#585b70")).
				PaddingLeft(4).
				PaddingTop(1)

	ErrorStyle = gloss.NewStyle().
			Foreground(gloss.Color("#f38ba8")).
			PaddingLeft(4).
			PaddingTop(1)

	ReaderPageStyle = gloss.NewStyle().
			Foreground(gloss.Color("#CDD6F4")).
			Padding(1, 2)

	ReaderLoadingStyle = gloss.NewStyle().
				Foreground(gloss.Color("#89b4fa")).
				Padding(2).
				Align(gloss.Center)
)
