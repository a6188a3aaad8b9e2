package events

import (
	"reflect"
	"testing"

	"github.com/nathoo/dlgforge/engine/parser"
	"github.com/nathoo/dlgforge/engine/state"
	"github.com/nathoo/dlgforge/types"
)

const eventSource = `[start]
-> END

[alarm]
@event:alarm
narrator: "Bells ring."
-> END

[alarm_late]
@event:alarm {night}
narrator: "Bells ring in the dark."
-> END

[storm]
@event:storm {outside}
-> END
`

func TestDispatch(t *testing.T) {
	d := parser.Parse(eventSource)

	tests := []struct {
		name   string
		event  string
		night  bool
		want   string
		wantOK bool
	}{
		{"default handler", "alarm", false, "alarm", true},
		{"later trigger wins", "alarm", true, "alarm_late", true},
		{"condition fails", "storm", false, "", false},
		{"unknown event", "quake", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := state.New()
			state.Set(s, "night", types.Bool(tt.night))
			got, ok := Dispatch(d, tt.event, s)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Dispatch(%q) = %q, %v; want %q, %v", tt.event, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDispatch_IgnoresTalkTriggers(t *testing.T) {
	d := parser.Parse("[a]\n@talk:alarm\n-> END\n")
	if _, ok := Dispatch(d, "alarm", state.New()); ok {
		t.Error("expected talk trigger not to answer an event")
	}
}

func TestNames(t *testing.T) {
	d := parser.Parse(eventSource)
	if got := Names(d); !reflect.DeepEqual(got, []string{"alarm", "storm"}) {
		t.Errorf("Names = %v", got)
	}
}
