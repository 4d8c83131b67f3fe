package schema

import (
	"encoding/json"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Outcome classifies how an agent turn ended
type Outcome uint

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	AnsweredWithText Outcome = iota // Agent produced text
	ToolCalledNoText                // Agent called a tool but produced no text
	Errored                         // Runtime or tool reported an error
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (o Outcome) String() string {
	switch o {
	case AnsweredWithText:
		return "answered_with_text"
	case ToolCalledNoText:
		return "tool_called_no_text"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

////////////////////////////////////////////////////////////////////////////////
// JSON MARSHAL

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "answered_with_text":
		*o = AnsweredWithText
	case "tool_called_no_text":
		*o = ToolCalledNoText
	case "errored":
		*o = Errored
	default:
		return fmt.Errorf("unknown outcome: %q", s)
	}
	return nil
}
