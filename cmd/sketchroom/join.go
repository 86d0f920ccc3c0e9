package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchroom/internal/engine"
	"github.com/DoyleJ11/sketchroom/internal/profile"
	"github.com/DoyleJ11/sketchroom/internal/room"
	"github.com/DoyleJ11/sketchroom/internal/ws"
)

var flagJoinName string

var joinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join a room; lines typed are sent as guesses, /start and /save are commands",
	Args:  cobra.ExactArgs(1),
	RunE:  runJoin,
}

func init() {
	joinCmd.Flags().StringVar(&flagJoinName, "name", "", "display name for this session (defaults to the saved name)")
}

func runJoin(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	store, err := a.openProfile()
	if err != nil {
		return a.close(err)
	}

	name := flagJoinName
	if name == "" {
		if name, err = store.Name(); errors.Is(err, profile.ErrNoProfile) {
			return a.close(multierr.Append(errors.New("no display name; run `sketchroom name <name>` or pass --name"), store.Close()))
		} else if err != nil {
			return a.close(multierr.Append(err, store.Close()))
		}
	}
	token, err := store.EnsureToken()
	if err != nil {
		return a.close(multierr.Append(err, store.Close()))
	}

	st := room.New(room.Options{Logger: a.logger})
	con := &console{w: cmd.OutOrStdout(), st: st}
	st.OnChange(con.change)
	st.OnEvent(con.event)

	cl, err := room.Join(ctx, room.ClientOptions{
		Endpoint:     a.cfg.WSURL,
		RoomCode:     args[0],
		PlayerName:   name,
		SessionToken: token,
		Logger:       a.logger,
		State:        st,
	})
	if err != nil {
		return a.close(multierr.Append(err, store.Close()))
	}
	defer func() {
		err = a.close(multierr.Combine(err, cl.Close(), store.Close()))
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, cmd.InOrStdin())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-cl.Done():
			if s := cl.Status(); s != ws.Closed {
				return fmt.Errorf("room %s: connection %s", args[0], s)
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := submit(cl, line); err != nil {
				con.printf("! %v\n", err)
				a.logger.Debug("input rejected", zap.String("line", line), zap.Error(err))
			}
		}
	}
}

// readLines streams r line by line until EOF or until ctx is done. The
// channel is closed either way.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func submit(cl *room.Client, line string) error {
	switch strings.TrimSpace(line) {
	case "":
		return nil
	case "/start":
		return cl.StartGame()
	case "/save":
		return cl.Save()
	}
	return cl.Say(line)
}

// console prints room changes. Changes arrive on the dispatch goroutine, so
// output is serialized.
type console struct {
	mu      sync.Mutex
	w       io.Writer
	st      *room.State
	printed int
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) change(ch room.Change) {
	v := c.st.View()
	switch ch {
	case room.ChangedStatus:
		c.printf("* connection %s\n", v.Status)
	case room.ChangedRoster:
		names := make([]string, 0, len(v.Players))
		for _, p := range v.Players {
			names = append(names, p.Name)
		}
		c.printf("* players: %s\n", strings.Join(names, ", "))
	case room.ChangedChat:
		c.mu.Lock()
		if len(v.Chat) < c.printed {
			c.printed = 0
		}
		for _, m := range v.Chat[c.printed:] {
			fmt.Fprintln(c.w, room.ChatLine(m))
		}
		c.printed = len(v.Chat)
		c.mu.Unlock()
	}
}

func (c *console) event(ev engine.Event) {
	v := c.st.View()
	switch ev.Type {
	case engine.EvtTurnBegan:
		drawer, _ := v.Drawer()
		c.printf("* round %d: %s is drawing\n", v.Game.Round, drawer.Name)
		if ev.Word != "" {
			c.printf("* your word is %q\n", ev.Word)
		}
	case engine.EvtTurnFinished:
		c.printf("* turn over (+%d for the drawer)\n", ev.Points)
	case engine.EvtTimeout:
		c.printf("* time is up\n")
	case engine.EvtGameFinished:
		c.printf("* game over\n")
		for i, s := range engine.Standings(v.Game, v.Players) {
			c.printf("  %d. %s %d\n", i+1, s.Player.Name, s.Points)
		}
	}
}
