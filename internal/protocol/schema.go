package protocol

import "embed"

// SchemaFS embeds the JSON Schemas for the three envelope shapes. They
// are documentation for client authors; the conformance tests validate
// marshaled envelopes against them.
//
//go:embed schema/*.schema.json
var SchemaFS embed.FS

// Schema file names within SchemaFS.
const (
	RequestSchema      = "schema/request.schema.json"
	ResponseSchema     = "schema/response.schema.json"
	NotificationSchema = "schema/notification.schema.json"
)
