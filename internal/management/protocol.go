package management

import "github.com/vlanspan/pvstd/internal/stp"

// Request is one newline-delimited JSON envelope pvstdctl sends over the
// control socket (spec §6.6). Command selects what the daemon does with
// the rest of the envelope:
//
//	"apply"    — Message must be set; applied via Controller.Submit.
//	"snapshot" — Message is ignored; the daemon replies with its current
//	             EngineSnapshot.
//	"ping"     — both ignored; used by pvstdctl to check the socket is up.
type Request struct {
	Command string   `json:"command"`
	Message *Message `json:"message,omitempty"`
}

// Response is the daemon's reply to one Request, one JSON object per line
// matching the request stream.
type Response struct {
	OK       bool                `json:"ok"`
	Error    string              `json:"error,omitempty"`
	Snapshot *stp.EngineSnapshot `json:"snapshot,omitempty"`
}
