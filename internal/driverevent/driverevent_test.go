package driverevent

import (
	"testing"

	"go.uber.org/zap"

	"bg/internal/fsm"
	"bg/internal/model"
)

type fakeSink struct {
	msgs []fsm.Message
}

func (f *fakeSink) EnqueueDriverEvent(msg fsm.Message) {
	f.msgs = append(f.msgs, msg)
}

func noopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestHandleStatusLineConnected(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, noopLogger())

	d.HandleStatusLine("AP-STA-CONNECTED aa:bb:cc:dd:ee:ff")

	if len(sink.msgs) != 1 || sink.msgs[0].Kind != fsm.MsgConnectedStations {
		t.Fatalf("expected one MsgConnectedStations, got %+v", sink.msgs)
	}
	want, _ := model.ParseMAC("aa:bb:cc:dd:ee:ff")
	if sink.msgs[0].Mac != want {
		t.Fatalf("mac mismatch: got %v want %v", sink.msgs[0].Mac, want)
	}
}

func TestHandleStatusLineDisconnected(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, noopLogger())

	d.HandleStatusLine("AP-STA-DISCONNECTED aa:bb:cc:dd:ee:ff")

	if len(sink.msgs) != 1 || sink.msgs[0].Kind != fsm.MsgDisconnectedStations {
		t.Fatalf("expected one MsgDisconnectedStations, got %+v", sink.msgs)
	}
}

func TestHandleStatusLineUnrecognizedIsDropped(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, noopLogger())

	d.HandleStatusLine("CTRL-EVENT-EAP-SUCCESS2 aa:bb:cc:dd:ee:ff someuser")

	if len(sink.msgs) != 0 {
		t.Fatalf("expected no messages for an unrecognized line, got %+v", sink.msgs)
	}
}

func TestHandleStatusLineMalformedMacDoesNotPanic(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, noopLogger())

	d.HandleStatusLine("AP-STA-CONNECTED not-a-mac")

	if len(sink.msgs) != 0 {
		t.Fatalf("expected malformed mac to be dropped, got %+v", sink.msgs)
	}
}

func TestHandleChannelSwitchLine(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, noopLogger())

	d.HandleChannelSwitchLine("CTRL-EVENT-CHANNEL-SWITCH freq=5180 ht_enabled=1 ch_width=2")

	if len(sink.msgs) != 1 || sink.msgs[0].Kind != fsm.MsgSoftApChannelSwitched {
		t.Fatalf("expected one MsgSoftApChannelSwitched, got %+v", sink.msgs)
	}
	if sink.msgs[0].Freq != 5180 || sink.msgs[0].Bandwidth != model.Bandwidth80MHz {
		t.Fatalf("unexpected freq/bandwidth: %+v", sink.msgs[0])
	}
}

func TestHandleRadiotapFrameIgnoresUndecodable(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, noopLogger())

	d.HandleRadiotapFrame([]byte{0x00, 0x01, 0x02})

	if len(sink.msgs) != 0 {
		t.Fatalf("expected undecodable payload to be dropped, got %+v", sink.msgs)
	}
}
