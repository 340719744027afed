// Command console is an operator-facing chat console against a running
// gateway. Plain input is submitted as a query; :up and :down judge the
// most recent match list; :close and :open drive the drawer lifecycle.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"portal-genie/internal/domain"
	"portal-genie/internal/integrations/portal"
	"portal-genie/internal/session"
)

func main() {
	gatewayURL := flag.String("gateway", envOr("GATEWAY_URL", "http://localhost:5145/api/assistant"), "base URL of the assistant gateway")
	flag.Parse()

	gw, err := portal.NewClient(*gatewayURL)
	if err != nil {
		slog.Error("failed to create gateway client", "err", err)
		os.Exit(1)
	}
	sess, err := session.New(gw)
	if err != nil {
		slog.Error("failed to create session", "err", err)
		os.Exit(1)
	}

	rl, err := readline.New("you> ")
	if err != nil {
		slog.Error("failed to initialize console input", "err", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	// enough for the whole linear sequence; transitions are never replayed
	phases := make(chan session.Phase, 8)
	sess.OnPhaseChange(func(p session.Phase) { phases <- p })

	sess.Open()
	defer sess.Close()
	playIntro(sess, phases)
	rendered := render(sess, 0)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			slog.Error("console input failed", "err", err)
			return
		}

		switch cmd := strings.TrimSpace(line); cmd {
		case "":
			continue
		case ":quit", ":q":
			return
		case ":open":
			sess.Open()
			playIntro(sess, phases)
		case ":close":
			sess.Close()
			fmt.Println("(drawer closed)")
		case ":up", ":down":
			verdict := domain.VerdictPositive
			if cmd == ":down" {
				verdict = domain.VerdictNegative
			}
			sendFeedback(sess, verdict)
		default:
			if err := sess.Submit(context.Background(), cmd); err != nil {
				switch {
				case errors.Is(err, session.ErrBusy):
					fmt.Println("(still waiting on the previous query)")
				case errors.Is(err, session.ErrEmptyQuery):
					// nothing to do
				default:
					slog.Warn("query failed", "err", err)
				}
			}
		}
		rendered = render(sess, rendered)
	}
}

func sendFeedback(sess *session.Session, v domain.Verdict) {
	err := sess.Feedback(context.Background(), v)
	switch {
	case err == nil:
		fmt.Println("(thanks for the feedback)")
	case errors.Is(err, session.ErrFeedbackBusy):
		fmt.Println("(previous feedback is still being sent)")
	case errors.Is(err, session.ErrNoAnswer):
		fmt.Println("(nothing to rate yet — ask for a report first)")
	default:
		fmt.Println("(could not deliver feedback, the conversation is unaffected)")
		slog.Warn("feedback delivery failed", "err", err)
	}
}

// playIntro echoes the drawer's introduction as transitions arrive,
// returning once the sequence settles.
func playIntro(sess *session.Session, phases <-chan session.Phase) {
	if sess.IntroPhase() == session.PhaseDone {
		return
	}
	for p := range phases {
		switch p {
		case session.PhaseSlidingIn:
			fmt.Println("✨ …")
		case session.PhaseShown:
			fmt.Println("✨ PAR Genie")
		case session.PhaseDone:
			return
		}
	}
}

// render prints messages appended since the last call and returns the new
// high-water mark.
func render(sess *session.Session, from int) int {
	msgs := sess.Messages()
	for _, m := range msgs[from:] {
		printMessage(m)
	}
	return len(msgs)
}

func printMessage(m domain.Message) {
	switch {
	case m.Answer != nil && m.Answer.Kind == domain.AnswerMatchList:
		fmt.Println("genie>")
		for _, match := range m.Answer.Matches {
			fmt.Printf("  • %s — %s (%s)\n", match.Name, match.Description, renderScore(match.Score))
		}
		fmt.Println("  rate this answer with :up or :down")
	case m.Answer != nil && m.Answer.Kind == domain.AnswerItemAction:
		a := m.Answer.Item
		fmt.Printf("genie> [%s] %s\n", a.Verb(), a.Message)
		fmt.Printf("  %s (ID %s) — price $%.2f, discount %.2f\n", a.Item.Name, a.Item.ID, a.Item.Price, a.Item.Discount)
	case m.Role == domain.RoleUser:
		// readline already echoed the operator's own input
	default:
		fmt.Printf("genie> %s\n", m.Text)
	}
}

// renderScore shows the relevance as a percentage. Upstream scores are
// passed through unclamped, so flag anything outside [0,1] instead of
// hiding it.
func renderScore(score float64) string {
	pct := fmt.Sprintf("%d%%", int(math.Round(score*100)))
	if score < 0 || score > 1 {
		return pct + " ⚠ out of range"
	}
	return pct
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
