package communication

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/kalsim-labs/kalsim/core"
)

// NATS subjects for run lifecycle events. Subscribers outside the process
// (dashboards, recorders) follow a run without touching the API.
const (
	SubjectRunStarted  = "simulation.run.started"
	SubjectRunStep     = "simulation.run.step"
	SubjectRunFinished = "simulation.run.finished"
)

// StartEmbeddedNATS runs an in-process NATS server and returns its client
// URL. Used when no external NATS_URL is configured so the daemon works
// without external infrastructure.
func StartEmbeddedNATS() (string, error) {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // random free port
		NoSigs: true,
		NoLog:  true,
	}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return "", fmt.Errorf("failed to create embedded NATS server: %v", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		return "", fmt.Errorf("embedded NATS server did not become ready")
	}
	log.Printf("Embedded NATS server listening at %s", srv.ClientURL())
	return srv.ClientURL(), nil
}

// StepEvent is the payload published once per completed step.
type StepEvent struct {
	RunID     string  `json:"run_id"`
	Day       int     `json:"day"`
	Step      int     `json:"step"`
	Price     float64 `json:"price"`
	Sentiment float64 `json:"sentiment"`
	Posts     int     `json:"posts"`
}

// RunEvent is the payload published at run start and finish.
type RunEvent struct {
	RunID  string         `json:"run_id"`
	Status core.RunStatus `json:"status"`
	Error  string         `json:"error,omitempty"`
}

// PublishStep publishes a step event. Best-effort: messaging failures are
// logged and never affect the run.
func PublishStep(event StepEvent) {
	publish(SubjectRunStep, event)
}

// PublishRun publishes a run lifecycle event.
func PublishRun(subject string, event RunEvent) {
	publish(subject, event)
}

func publish(subject string, payload interface{}) {
	broker := core.NatsBrokerInstance
	if broker == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", subject, err)
		return
	}
	if err := broker.Publish(subject, data); err != nil {
		log.Printf("Failed to publish %s event: %v", subject, err)
	}
}
