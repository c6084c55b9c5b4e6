package dbusipc

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"ctlmapper/internal/diag"
	"ctlmapper/internal/overlay"
)

// Listener runs in the overlay process: it claims BusName, forwards every
// incoming Command signal to a local overlay.Sink (typically a
// fyneui.Renderer), and answers the GetKnobs/Add* method calls the mapper
// issues. knobs is read on every GetKnobs call, so callers should keep it
// up to date as the local renderer's knob state changes.
type Listener struct {
	conn  *dbus.Conn
	log   *diag.Logger
	sink  overlay.Sink
	knobs func() []overlay.KnobSnapshot

	nextID uint64
}

// Listen claims BusName on the session bus and starts forwarding incoming
// commands to sink. knobs is called to answer GetKnobs.
func Listen(sink overlay.Sink, knobs func() []overlay.KnobSnapshot, log *diag.Logger) (*Listener, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbusipc: connect to session bus: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("dbusipc: request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("dbusipc: %s is already owned by another process", BusName)
	}

	l := &Listener{conn: conn, log: log, sink: sink, knobs: knobs}

	if err := conn.Export(l, ObjectPath, InterfaceName); err != nil {
		return nil, fmt.Errorf("dbusipc: export methods: %w", err)
	}
	node := &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: InterfaceName,
				Methods: []introspect.Method{
					{Name: "GetKnobs", Args: []introspect.Arg{{Name: "knobs", Type: "s", Direction: "out"}}},
					{Name: "AddScreenScrapingArea", Args: []introspect.Arg{{Name: "args", Type: "s", Direction: "in"}, {Name: "id", Type: "s", Direction: "out"}}},
					{Name: "AddMemoryCheck", Args: []introspect.Arg{{Name: "args", Type: "s", Direction: "in"}, {Name: "id", Type: "s", Direction: "out"}}},
					{Name: "AddOverlayCheck", Args: []introspect.Arg{{Name: "name", Type: "s", Direction: "in"}, {Name: "id", Type: "s", Direction: "out"}}},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("dbusipc: export introspection: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(InterfaceName),
		dbus.WithMatchMember("Command"),
	); err != nil {
		return nil, fmt.Errorf("dbusipc: subscribe to commands: %w", err)
	}
	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	go l.forward(signals)

	return l, nil
}

func (l *Listener) forward(signals chan *dbus.Signal) {
	for sig := range signals {
		if sig.Name != SignalCommand || len(sig.Body) != 1 {
			continue
		}
		payload, ok := sig.Body[0].(string)
		if !ok {
			continue
		}
		var dto commandDTO
		if err := json.Unmarshal([]byte(payload), &dto); err != nil {
			l.log.Printf(diag.Overlay, "dbusipc: decode command: %v", err)
			continue
		}
		l.sink.Send(dto.toCommand())
	}
}

// GetKnobs is exported on the bus as InterfaceName.GetKnobs.
func (l *Listener) GetKnobs() (string, *dbus.Error) {
	encoded, err := json.Marshal(l.knobs())
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(encoded), nil
}

// PushProbeResult emits a ProbeResult signal for id. The Listener's relay
// goroutines call it for each value the local sink sends back on a
// registered probe's reply channel.
func (l *Listener) PushProbeResult(id string, result probeResultDTO) error {
	result.ID = id
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return l.conn.Emit(ObjectPath, SignalProbeResult, string(payload))
}

// AddScreenScrapingArea is exported on the bus; it forwards the
// registration to the local sink as a normal Command carrying a fresh
// in-process reply channel, and returns a subscription id whose results
// PushProbeResult will report back to the mapper by.
func (l *Listener) AddScreenScrapingArea(args string) (string, *dbus.Error) {
	var area overlay.ScreenScrapingArea
	if err := json.Unmarshal([]byte(args), &area); err != nil {
		return "", dbus.MakeFailedError(err)
	}

	id := l.allocID()
	reply := make(chan overlay.ScreenScrapingResult, 1)
	l.sink.Send(overlay.Command{Kind: overlay.CmdAddScreenScrapingArea, ScreenArea: area, ReplyScreen: reply})
	go l.relayScreen(id, reply)
	return id, nil
}

func (l *Listener) relayScreen(id string, reply chan overlay.ScreenScrapingResult) {
	for r := range reply {
		result := r
		_ = l.PushProbeResult(id, probeResultDTO{Screen: &result})
	}
}

// AddMemoryCheck mirrors AddScreenScrapingArea for memory probes.
func (l *Listener) AddMemoryCheck(args string) (string, *dbus.Error) {
	var req struct {
		PtrSize uint8
		Base    uint64
		Offsets []int32
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return "", dbus.MakeFailedError(err)
	}

	id := l.allocID()
	reply := make(chan uint64, 1)
	l.sink.Send(overlay.Command{
		Kind:       overlay.CmdAddMemoryCheck,
		MemPtrSize: req.PtrSize,
		MemBase:    req.Base,
		MemOffsets: req.Offsets,
		ReplyU64:   reply,
	})
	go l.relayU64(id, reply)
	return id, nil
}

func (l *Listener) relayU64(id string, reply chan uint64) {
	for v := range reply {
		value := v
		_ = l.PushProbeResult(id, probeResultDTO{U64: &value})
	}
}

// AddOverlayCheck mirrors AddScreenScrapingArea for overlay-presence probes.
func (l *Listener) AddOverlayCheck(name string) (string, *dbus.Error) {
	id := l.allocID()
	reply := make(chan bool, 1)
	l.sink.Send(overlay.Command{Kind: overlay.CmdAddOverlayCheck, OverlayCheckName: name, ReplyBool: reply})
	go l.relayBool(id, reply)
	return id, nil
}

func (l *Listener) relayBool(id string, reply chan bool) {
	for v := range reply {
		value := v
		_ = l.PushProbeResult(id, probeResultDTO{Bool: &value})
	}
}

func (l *Listener) allocID() string {
	return fmt.Sprintf("probe-%d", atomic.AddUint64(&l.nextID, 1))
}

// Close releases BusName.
func (l *Listener) Close() error {
	_, err := l.conn.ReleaseName(BusName)
	return err
}
