// Package regmap defines the in-memory register map shared by every regflow
// input format and generator.
//
// A Map holds Blocks, a Block holds Registers and a Register holds Fields.
// Readers (the sheet and regspec packages) build a Map; writers (rdl, codegen)
// and the inspect package consume it. Validate checks a Map for the layout
// problems that would otherwise only surface inside the external toolchain.
package regmap
