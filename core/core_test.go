package core

import (
	"errors"
	"testing"
)

func TestPushKindIsMessage(t *testing.T) {
	messages := []PushKind{PushKindMessage, PushKindPMessage, PushKindSMessage}
	for _, k := range messages {
		if !k.IsMessage() {
			t.Errorf("%v should be a message kind", k)
		}
	}
	others := []PushKind{
		PushKindDisconnection, PushKindOther, PushKindInvalidate,
		PushKindSubscribe, PushKindUnsubscribe, PushKindPSubscribe,
	}
	for _, k := range others {
		if k.IsMessage() {
			t.Errorf("%v should not be a message kind", k)
		}
	}
}

func TestCommandErrorKind(t *testing.T) {
	err := NewCommandError(KindTimeout, "request timed out")
	if KindOf(err) != KindTimeout {
		t.Errorf("KindOf = %v, want timeout", KindOf(err))
	}
	wrapped := errors.Join(errors.New("outer"), err)
	if KindOf(wrapped) != KindTimeout {
		t.Errorf("KindOf through wrapping = %v, want timeout", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnspecified {
		t.Error("Plain errors should be unspecified")
	}
}

func TestNewCmd(t *testing.T) {
	cmd := NewCmd("SET", []byte("k"), []byte("v"))
	if cmd.Name != "SET" || len(cmd.Args) != 2 {
		t.Errorf("Cmd = %+v", cmd)
	}
}
