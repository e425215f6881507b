// Package fileserve is a minimal TCP file transfer service.
//
// The wire protocol frames every message as a text header terminated by
// a blank line ("\r\n\r\n") followed by an optional binary payload whose
// length the header declares. Each connection carries exactly one
// request/response pair. Two operations exist: UPLOAD stores a file
// under its announced name, GET streams a stored file back.
//
// The packages compose as follows:
//
//   - protocol: framing, request parsing and JSON response encoding
//   - limits: shared size limits and validation helpers
//   - storage: the flat directory the server stores files in
//   - server: accept loop with three dispatch policies plus the
//     transfer engine
//   - client: the request driver used by the CLI and the stress harness
//   - stress: concurrent load runs with CSV reporting
//
// The root package holds the YAML configuration and logging setup shared
// by the fileserved and filecli commands under cmd/.
package fileserve
