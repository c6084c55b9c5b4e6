package dbusipc

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"ctlmapper/internal/diag"
	"ctlmapper/internal/overlay"
)

// Sink is the mapper-side overlay.Sink: it talks to whichever process owns
// BusName over the session bus. Probe reply channels never leave this
// process — Sink keeps them in pending, keyed by the subscription id the
// overlay process hands back from an Add* call, and feeds them from
// incoming ProbeResult signals.
type Sink struct {
	conn *dbus.Conn
	obj  dbus.BusObject
	log  *diag.Logger

	mu      sync.Mutex
	pending map[string]pendingProbe

	signals chan *dbus.Signal
}

type pendingProbe struct {
	screen chan overlay.ScreenScrapingResult
	u64    chan uint64
	bool_  chan bool
}

// NewSink connects to the session bus and starts listening for
// ProbeResult signals from the overlay service named BusName.
func NewSink(log *diag.Logger) (*Sink, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbusipc: connect to session bus: %w", err)
	}

	s := &Sink{
		conn:    conn,
		obj:     conn.Object(BusName, ObjectPath),
		log:     log,
		pending: map[string]pendingProbe{},
		signals: make(chan *dbus.Signal, 16),
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(InterfaceName),
		dbus.WithMatchMember("ProbeResult"),
	); err != nil {
		return nil, fmt.Errorf("dbusipc: subscribe to probe results: %w", err)
	}
	conn.Signal(s.signals)
	go s.demux()

	return s, nil
}

func (s *Sink) demux() {
	for sig := range s.signals {
		if sig.Name != SignalProbeResult || len(sig.Body) != 1 {
			continue
		}
		payload, ok := sig.Body[0].(string)
		if !ok {
			continue
		}
		var result probeResultDTO
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			s.log.Printf(diag.Overlay, "dbusipc: decode probe result: %v", err)
			continue
		}

		s.mu.Lock()
		p, ok := s.pending[result.ID]
		s.mu.Unlock()
		if !ok {
			continue
		}

		switch {
		case result.Screen != nil && p.screen != nil:
			select {
			case p.screen <- *result.Screen:
			default:
			}
		case result.U64 != nil && p.u64 != nil:
			select {
			case p.u64 <- *result.U64:
			default:
			}
		case result.Bool != nil && p.bool_ != nil:
			select {
			case p.bool_ <- *result.Bool:
			default:
			}
		}
	}
}

// Send implements overlay.Sink.
func (s *Sink) Send(cmd overlay.Command) {
	switch cmd.Kind {
	case overlay.CmdGetKnobs:
		s.getKnobs(cmd.ReplyKnobs)

	case overlay.CmdAddScreenScrapingArea:
		s.register(MethodAddScreen, cmd.ScreenArea, func(id string) {
			s.mu.Lock()
			s.pending[id] = pendingProbe{screen: cmd.ReplyScreen}
			s.mu.Unlock()
		})

	case overlay.CmdAddMemoryCheck:
		args := struct {
			PtrSize uint8
			Base    uint64
			Offsets []int32
		}{cmd.MemPtrSize, cmd.MemBase, cmd.MemOffsets}
		s.register(MethodAddMemory, args, func(id string) {
			s.mu.Lock()
			s.pending[id] = pendingProbe{u64: cmd.ReplyU64}
			s.mu.Unlock()
		})

	case overlay.CmdAddOverlayCheck:
		s.register(MethodAddOverlay, cmd.OverlayCheckName, func(id string) {
			s.mu.Lock()
			s.pending[id] = pendingProbe{bool_: cmd.ReplyBool}
			s.mu.Unlock()
		})

	default:
		payload, err := json.Marshal(toDTO(cmd))
		if err != nil {
			s.log.Printf(diag.Overlay, "dbusipc: encode command %v: %v", cmd.Kind, err)
			return
		}
		if err := s.conn.Emit(ObjectPath, SignalCommand, string(payload)); err != nil {
			s.log.Printf(diag.Overlay, "dbusipc: emit command %v: %v", cmd.Kind, err)
		}
	}
}

func (s *Sink) register(method string, args any, onID func(id string)) {
	encoded, err := json.Marshal(args)
	if err != nil {
		s.log.Printf(diag.Overlay, "dbusipc: encode %s args: %v", method, err)
		return
	}

	var id string
	if err := s.obj.Call(method, 0, string(encoded)).Store(&id); err != nil {
		s.log.Printf(diag.Overlay, "dbusipc: call %s: %v", method, err)
		return
	}
	onID(id)
}

func (s *Sink) getKnobs(reply chan []overlay.KnobSnapshot) {
	var payload string
	if err := s.obj.Call(MethodGetKnobs, 0).Store(&payload); err != nil {
		s.log.Printf(diag.Overlay, "dbusipc: call GetKnobs: %v", err)
		reply <- nil
		return
	}

	var knobs []overlay.KnobSnapshot
	if err := json.Unmarshal([]byte(payload), &knobs); err != nil {
		s.log.Printf(diag.Overlay, "dbusipc: decode GetKnobs reply: %v", err)
		reply <- nil
		return
	}
	reply <- knobs
}
