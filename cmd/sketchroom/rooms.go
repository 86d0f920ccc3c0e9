package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/sketchroom/internal/httpapi"
	"github.com/DoyleJ11/sketchroom/pkg/types"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List or create rooms",
}

var (
	flagOffset   int
	flagSettings types.Settings
)

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List public rooms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		codes, err := httpapi.New(a.cfg.HTTPURL, a.logger).ListRooms(cmd.Context(), flagOffset)
		if err != nil {
			return a.close(err)
		}
		out := cmd.OutOrStdout()
		if len(codes) == 0 {
			fmt.Fprintln(out, "no public rooms")
		}
		for _, c := range codes {
			fmt.Fprintln(out, c)
		}
		return a.close(nil)
	},
}

var roomsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a room and print its code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		resp, err := httpapi.New(a.cfg.HTTPURL, a.logger).CreateRoom(cmd.Context(), flagSettings)
		if err != nil {
			return a.close(err)
		}
		s := resp.Settings
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n  players %d, rounds %d, %ds per turn, public %t\n",
			resp.Code, s.PlayerLimit, s.TotalRounds, s.TimeLimitSecs, s.IsPublic)
		return a.close(nil)
	},
}

func init() {
	roomsListCmd.Flags().IntVar(&flagOffset, "offset", 0, "skip this many rooms")

	f := roomsCreateCmd.Flags()
	f.IntVar(&flagSettings.PlayerLimit, "players", 0, "player limit (default 8)")
	f.IntVar(&flagSettings.TotalRounds, "rounds", 0, "number of rounds (default 3)")
	f.IntVar(&flagSettings.TimeLimitSecs, "time", 0, "seconds per turn (default 45)")
	f.StringSliceVar(&flagSettings.CustomWordBank, "word", nil, "custom word; repeat or comma-separate")
	f.BoolVar(&flagSettings.IsPublic, "public", false, "list the room publicly")

	roomsCmd.AddCommand(roomsListCmd, roomsCreateCmd)
}
