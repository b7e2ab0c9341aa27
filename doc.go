// Package userdata assembles cloud-init user-data from heterogeneous parts.
// Shell scripts, cloud-config values, include lists and pre-built parts are
// typed, named, serialized and packed into one payload that fits the size
// limit of the metadata service that delivers it.
//
// # Problem Statement
//
// Cloud instances accept a single user-data blob, usually capped at 16 KiB.
// Combining a boot script with a cloud-config document already means
// writing a MIME multipart message by hand:
//
//   - Every part needs the right Content-Type or cloud-init ignores it
//   - cloud-config must be YAML that PyYAML reads back the same way
//   - The boundary must not occur in any part
//   - Large payloads must be gzip compressed, and then base64 encoded for
//     most provider APIs
//
// The userdata package handles all of that. Parts are added in the order
// cloud-init should see them, and rendering picks the smallest valid form.
//
// # Basic Usage
//
//	doc := userdata.New()
//	doc.AddValue("#!/bin/bash\necho hi\n")                      // text/x-shellscript, part1
//	doc.AddValue(map[string]any{"packages": []string{"jq"}})   // text/cloud-config, part2
//
//	encoded, err := doc.RenderBase64()
//
// A document with a single part renders bare, with its directive line:
//
//	doc := userdata.New()
//	doc.Add(userdata.Structured{Value: userdata.NewMap().Set("hostname", "web-1")})
//	text, _ := doc.RenderText() // "#cloud-config\nhostname: web-1\n"
//
// The bare form is the part's content byte for byte, including the line
// ending of its directive. A part whose first line does not name its type,
// such as text/plain or a per-boot script, cannot be read back bare; it is
// rendered as a single MIME entity (Content-Type and Content-Disposition
// headers, a blank line, then the content) instead. WithForceMIME does the
// same for any part.
//
// # Inputs
//
// Input is a closed set of variants:
//
//   - Text and Bytes: raw content typed by its first line
//   - Structured: a JSON-compatible value serialized to YAML
//   - Template: a Twig template rendered when added
//   - Part: an already normalized part, passed through
//
// The content type of Text and Bytes is taken, in order, from
// WithContentType, an embedded MIME header block, a '#' directive
// ("#cloud-config", "#include", "#!" and the rest of PartTypes), and
// finally the document's default content type. Content that matches none
// of these fails with ErrTypeInference unless WithDefaultContentType is set.
//
// # Identifiers
//
// Each part gets a filename that is unique within the document: the one
// given with WithIdentifier, a filename found in embedded headers, or
// "partN" where N is the part's position.
//
// # Rendering
//
//	res, err := doc.Render(userdata.TargetBase64)
//	res.Compressed // true if the payload had to be gzip compressed
//
// CompressAuto (the default) compresses only when the raw payload exceeds
// MaxBytes. A compressed payload cannot be returned as text
// (ErrEncodingConflict) and a payload that does not fit even compressed
// fails with ErrDocumentTooLarge.
//
// Boundaries come from a BoundaryGenerator. SequentialBoundary, the
// default, makes identical documents render to identical bytes;
// RandomBoundary and FixedBoundary are also provided.
//
// # Reading User-Data Back
//
// Decode and Inspect reverse Render: they accept text, gzip or base64 and
// return the parts with their types and identifiers.
//
// # Concurrency
//
// A Document is not safe for concurrent mutation. Render methods do not
// modify the document and may run concurrently with each other.
package userdata
