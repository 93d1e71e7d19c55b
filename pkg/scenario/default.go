package scenario

import (
	"fmt"

	"github.com/daviddao/tickboard/pkg/config"
	"github.com/daviddao/tickboard/pkg/protocol"
)

func int64p(v int64) *int64 { return &v }

func intp(v int) *int { return &v }

// Default returns the reference session: publish, a rejected duplicate,
// like and dislike switching, reports up to the ban threshold, a refused
// publish by the banned author, an anonymous search, then shutdown.
func Default(cfg *config.Config) *Scenario {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	steps := []Step{
		{Op: OpInit, Expect: protocol.KindInitAck},
		{Op: OpPublish, Author: "ann", Text: "HelloWorld", Expect: protocol.KindOperationAck},
		{Op: OpPublish, Author: "ann", Text: "HelloWorld", Expect: protocol.KindOperationFailed},
		{Op: OpLike, Author: "bob", Expect: protocol.KindReactionResponse, Points: int64p(1)},
		{Op: OpLike, Author: "bob", Expect: protocol.KindOperationFailed},
		{Op: OpDislike, Author: "bob", Expect: protocol.KindReactionResponse, Points: int64p(-1)},
		{Op: OpReact, Author: "bob", Emoji: "laughing", Expect: protocol.KindReactionResponse, Points: int64p(-1)},
	}
	for i := 1; i <= cfg.BanThreshold; i++ {
		expect := protocol.KindOperationAck
		if i == cfg.BanThreshold {
			expect = protocol.KindUserBanned
		}
		steps = append(steps, Step{
			Op:       OpReport,
			Author:   fmt.Sprintf("reporter-%d", i),
			Reported: "ann",
			Expect:   expect,
		})
	}
	steps = append(steps,
		Step{Op: OpPublish, Author: "ann", Text: "Again", Expect: protocol.KindUserBanned},
		Step{Op: OpSearch, Query: "Hello", Expect: protocol.KindFoundMessages, Found: intp(1)},
		Step{Op: OpFinish, Expect: protocol.KindFinishAck},
		Step{Op: OpStop, Expect: ExpectStopped},
	)
	return &Scenario{
		Workers:         cfg.Workers,
		CommunicationID: 1,
		Steps:           steps,
	}
}
