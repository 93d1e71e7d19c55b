// Package scenario drives a board simulation from a scripted client.
//
// A scenario is a TOML document listing the requests one client sends, in
// order, together with the reply each request is expected to produce:
//
//	workers = 2
//	communication-id = 1
//
//	[[step]]
//	op = "init"
//	expect = "init-ack"
//
//	[[step]]
//	op = "publish"
//	author = "ann"
//	text = "HelloWorld"
//	expect = "operation-ack"
//
// Each step is told to the dispatcher or to the worker bound to its session,
// and the kernel is ticked until the client receives a reply. Replies that do
// not match the expectation are collected and returned together once every
// step has run.
package scenario

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/protocol"
)

// Ops understood by Run.
const (
	OpInit     = "init"
	OpFinish   = "finish"
	OpPublish  = "publish"
	OpEdit     = "edit"
	OpDelete   = "delete"
	OpLike     = "like"
	OpDislike  = "dislike"
	OpRemove   = "remove"
	OpReact    = "react"
	OpRetrieve = "retrieve"
	OpSearch   = "search"
	OpReport   = "report"
	OpStop     = "stop"
)

// ExpectError asserts that telling the step's message fails synchronously.
const ExpectError = "error"

// ExpectStopped asserts that a stop step drains the whole pool.
const ExpectStopped = "stopped"

var ops = map[string]struct{}{
	OpInit: {}, OpFinish: {}, OpPublish: {}, OpEdit: {}, OpDelete: {},
	OpLike: {}, OpDislike: {}, OpRemove: {}, OpReact: {}, OpRetrieve: {},
	OpSearch: {}, OpReport: {}, OpStop: {},
}

var expectations = map[string]struct{}{
	"": {}, ExpectError: {}, ExpectStopped: {},
	protocol.KindInitAck: {}, protocol.KindFinishAck: {},
	protocol.KindOperationAck: {}, protocol.KindOperationFailed: {},
	protocol.KindReactionResponse: {}, protocol.KindFoundMessages: {},
	protocol.KindUserBanned: {},
}

// Scenario is a scripted client session.
type Scenario struct {
	// Workers overrides the configured pool size when positive.
	Workers int `toml:"workers,omitempty" json:"workers,omitempty"`
	// CommunicationID is the session id of steps that do not set Comm.
	CommunicationID int64 `toml:"communication-id" json:"communication-id"`
	// MaxTicks bounds the wait for each reply. Zero uses the config value.
	MaxTicks int    `toml:"max-ticks,omitempty" json:"max-ticks,omitempty"`
	Steps    []Step `toml:"step" json:"steps"`
}

// Step is one request and its expected reply.
type Step struct {
	Op     string `toml:"op" json:"op"`
	Author string `toml:"author,omitempty" json:"author,omitempty"`
	Text   string `toml:"text,omitempty" json:"text,omitempty"`
	Query  string `toml:"query,omitempty" json:"query,omitempty"`
	// Item is the target item id; 0 means the id of the latest successful
	// publish.
	Item     int64  `toml:"item,omitempty" json:"item,omitempty"`
	Emoji    string `toml:"emoji,omitempty" json:"emoji,omitempty"`
	Kind     string `toml:"kind,omitempty" json:"kind,omitempty"`
	Reported string `toml:"reported,omitempty" json:"reported,omitempty"`
	Comm     int64  `toml:"comm,omitempty" json:"comm,omitempty"`
	// Expect is a reply kind, "error" or "stopped". Empty accepts anything.
	Expect string `toml:"expect,omitempty" json:"expect,omitempty"`
	// Points is checked against a reaction-response.
	Points *int64 `toml:"points,omitempty" json:"points,omitempty"`
	// Found is checked against the size of a found-messages reply.
	Found *int `toml:"found,omitempty" json:"found,omitempty"`
}

// Load reads a scenario from a TOML file.
func Load(path string) (*Scenario, error) {
	sc := &Scenario{CommunicationID: 1}
	meta, err := toml.DecodeFile(path, sc)
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidScenario, err)
	}
	if err := finish(sc, meta); err != nil {
		return nil, err
	}
	return sc, nil
}

// Parse reads a scenario from a TOML document.
func Parse(data string) (*Scenario, error) {
	sc := &Scenario{CommunicationID: 1}
	meta, err := toml.Decode(data, sc)
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidScenario, err)
	}
	if err := finish(sc, meta); err != nil {
		return nil, err
	}
	return sc, nil
}

func finish(sc *Scenario, meta toml.MetaData) error {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		items := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			items = append(items, k.String())
		}
		return errors.ErrInvalidScenario.GenWithStackByArgs("unknown keys " + strings.Join(items, ", "))
	}
	return sc.Validate()
}

// Validate rejects unknown ops and expectations.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.ErrInvalidScenario.GenWithStackByArgs("no steps")
	}
	for i, st := range sc.Steps {
		if _, ok := ops[st.Op]; !ok {
			return errors.ErrInvalidScenario.GenWithStackByArgs(fmt.Sprintf("step %d: unknown op %q", i+1, st.Op))
		}
		if _, ok := expectations[st.Expect]; !ok {
			return errors.ErrInvalidScenario.GenWithStackByArgs(fmt.Sprintf("step %d: unknown expectation %q", i+1, st.Expect))
		}
		if st.Expect == ExpectStopped && st.Op != OpStop {
			return errors.ErrInvalidScenario.GenWithStackByArgs(fmt.Sprintf("step %d: only stop can expect %q", i+1, ExpectStopped))
		}
	}
	return nil
}

// Toml renders the scenario as a TOML document.
func (sc *Scenario) Toml() (string, error) {
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(sc); err != nil {
		return "", err
	}
	return b.String(), nil
}
