package config

//go:generate go tool go-enum --marshal --names

// Specification of requested output type.
// ENUM(png, svg)
type OutputFmt int

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtPng:
		return ".png"
	case OutputFmtSvg:
		return ".svg"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

func (o OutputFmt) ContentType() string {
	switch o {
	case OutputFmtPng:
		return "image/png"
	case OutputFmtSvg:
		return "image/svg+xml"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// Font style as understood by font matching.
// ENUM(normal, italic)
type FontStyle int

// Emoji image provider, none means emoji are drawn from fonts as regular text.
// ENUM(none, twemoji, openmoji, blobmoji, noto, fluent, fluentFlat)
type EmojiType int

// Cache backend for remote resources (fonts, images, emoji).
// ENUM(none, memory, file, redis)
type CacheKind int
