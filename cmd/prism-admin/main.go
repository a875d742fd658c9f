// ABOUTME: Admin CLI for prism-relay player and team management
// ABOUTME: Operates on the relay database directly and publishes over the relay bus

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/h2ph/prism-relay/internal/bus"
	"github.com/h2ph/prism-relay/internal/config"
	"github.com/h2ph/prism-relay/internal/relay"
	"github.com/h2ph/prism-relay/internal/store"
)

const banner = `
             _
  _ __  _ __(_)___ _ __ ___
 | '_ \| '__| / __| '_ ' _ \
 | |_) | |  | \__ \ | | | | |
 | .__/|_|  |_|___/_| |_| |_|
 |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "players":
		err = cmdPlayers()
	case "player":
		err = cmdPlayer(args)
	case "teams":
		err = cmdTeams(args)
	case "team":
		err = cmdTeam(args)
	case "set-team-chat":
		err = cmdSetTeamChat(args)
	case "publish":
		err = cmdPublish(args)
	case "invalidate":
		err = cmdInvalidate(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: prism-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  players                        List all known players")
	fmt.Println("  player <uuid>                  Show a single player")
	fmt.Println("  teams create --id <id> --name <name>   Create a team")
	fmt.Println("  team <team-id>                 List members of a team")
	fmt.Println("  team assign <uuid> <team-id>   Assign a player to a team ('-' clears)")
	fmt.Println("  set-team-chat <uuid> on|off    Toggle a player's team chat")
	fmt.Println("  publish <team-id> <message..>  Publish a team chat message over the bus")
	fmt.Println("  invalidate <uuid>              Broadcast a player state invalidation")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  PRISM_CONFIG                   Config path (default: ~/.config/prism/relay.yaml)")
	fmt.Println()
}

// loadConfig reads the relay config the same way prism-relay serve does.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("PRISM_CONFIG")
	if path == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("could not determine config directory: %w", err)
			}
			configDir = filepath.Join(homeDir, ".config")
		}
		path = filepath.Join(configDir, "prism", "relay.yaml")
	}
	return config.Load(path)
}

func openStore() (store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(cfg.Database.Path)
}

// openBus connects to the relay's Redis bus for publish commands.
func openBus(ctx context.Context) (*bus.RedisBus, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return bus.NewRedisBus(ctx, bus.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
}

// cmdPlayers lists every player the relay has seen
func cmdPlayers() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	players, err := st.ListPlayers(context.Background())
	if err != nil {
		return fmt.Errorf("listing players: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Players")
	cyan.Println("  -------")

	if len(players) == 0 {
		fmt.Println("  (no players)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  UUID\tNAME\tTEAM\tTEAM CHAT\tLAST JOIN")
	fmt.Fprintln(w, "  ----\t----\t----\t---------\t---------")

	for _, p := range players {
		team := "-"
		if p.TeamID != nil {
			team = *p.TeamID
		}
		chat := "off"
		if p.TeamChatEnabled {
			chat = "on"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, team, chat, p.LastJoin.Format("Jan 02 15:04"))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// cmdPlayer shows a single player record
func cmdPlayer(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: player <uuid>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid player id: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.GetPlayer(context.Background(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no player with id %s", id)
		}
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Player")
	cyan.Println("  ------")
	fmt.Printf("  UUID:        %s\n", p.ID)
	fmt.Printf("  Name:        %s\n", p.Name)
	fmt.Printf("  First Join:  %s\n", p.FirstJoin.Format(time.RFC3339))
	fmt.Printf("  Last Join:   %s\n", p.LastJoin.Format(time.RFC3339))
	if p.LastRegion != "" {
		fmt.Printf("  Last Region: %s\n", p.LastRegion)
	}
	if p.TeamID != nil {
		fmt.Printf("  Team:        %s\n", *p.TeamID)
	} else {
		fmt.Printf("  Team:        (none)\n")
	}
	chat := "off"
	if p.TeamChatEnabled {
		chat = "on"
	}
	fmt.Printf("  Team Chat:   %s\n", chat)
	fmt.Println()

	return nil
}

// cmdTeams handles team management subcommands
func cmdTeams(args []string) error {
	subcmd := ""
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "create", "add":
		return cmdTeamsCreate(args)
	default:
		return fmt.Errorf("usage: teams create --id <id> --name <name>")
	}
}

func cmdTeamsCreate(args []string) error {
	var id, name string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--id", "-i":
			if i+1 < len(args) {
				id = args[i+1]
				i++
			}
		case "--name", "-n":
			if i+1 < len(args) {
				name = args[i+1]
				i++
			}
		}
	}

	if id == "" || name == "" {
		return fmt.Errorf("usage: teams create --id <id> --name <name>")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.CreateTeam(context.Background(), &store.Team{ID: id, Name: name}); err != nil {
		return fmt.Errorf("creating team: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Created team: %s (%s)\n", name, id)
	return nil
}

// cmdTeam lists team members, or handles "team assign"
func cmdTeam(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: team <team-id> | team assign <uuid> <team-id>")
	}

	if args[0] == "assign" {
		return cmdTeamAssign(args[1:])
	}

	teamID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	name, err := st.TeamName(ctx, teamID)
	if err != nil {
		return err
	}
	if name == nil {
		return fmt.Errorf("no team with id %s", teamID)
	}

	members, err := st.TeamMembers(ctx, teamID)
	if err != nil {
		return fmt.Errorf("listing members: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  Team: %s (%s)\n", *name, teamID)
	cyan.Println("  ----")

	if len(members) == 0 {
		fmt.Println("  (no members)")
		fmt.Println()
		return nil
	}

	for _, id := range members {
		fmt.Printf("  %s\n", id)
	}
	fmt.Println()

	return nil
}

func cmdTeamAssign(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: team assign <uuid> <team-id>  ('-' as team-id clears)")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid player id: %w", err)
	}

	var teamID *string
	if args[1] != "-" {
		teamID = &args[1]
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.AssignTeam(context.Background(), id, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no player with id %s", id)
		}
		return err
	}

	green := color.New(color.FgGreen)
	if teamID == nil {
		green.Printf("✓ Cleared team for %s\n", id)
	} else {
		green.Printf("✓ Assigned %s to team %s\n", id, *teamID)
	}

	// Running relays keep cached team state, so broadcast a refresh.
	return broadcastInvalidate(id)
}

// cmdSetTeamChat toggles a player's team chat preference
func cmdSetTeamChat(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set-team-chat <uuid> on|off")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid player id: %w", err)
	}

	var enabled bool
	switch strings.ToLower(args[1]) {
	case "on", "true", "1":
		enabled = true
	case "off", "false", "0":
		enabled = false
	default:
		return fmt.Errorf("usage: set-team-chat <uuid> on|off")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetTeamChatEnabled(context.Background(), id, enabled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no player with id %s", id)
		}
		return err
	}

	green := color.New(color.FgGreen)
	state := "off"
	if enabled {
		state = "on"
	}
	green.Printf("✓ Team chat %s for %s\n", state, id)

	return broadcastInvalidate(id)
}

// cmdPublish pushes a team chat message onto the bus as an operator
func cmdPublish(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: publish <team-id> <message...>")
	}
	teamID := args[0]
	content := strings.Join(args[1:], " ")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	teamName, err := st.TeamName(ctx, teamID)
	if err != nil {
		return err
	}
	if teamName == nil {
		return fmt.Errorf("no team with id %s", teamID)
	}

	b, err := openBus(ctx)
	if err != nil {
		return fmt.Errorf("connecting to bus: %w", err)
	}
	defer b.Close()

	msg := relay.Message{
		Sender:   "Console",
		TeamID:   &teamID,
		TeamName: teamName,
		Content:  content,
		Origin:   "prism-admin",
	}
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := b.Publish(ctx, bus.TopicTeamChat, payload); err != nil {
		return fmt.Errorf("publishing: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Published to team %s\n", teamID)
	return nil
}

// cmdInvalidate broadcasts a cache invalidation for a player
func cmdInvalidate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: invalidate <uuid>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid player id: %w", err)
	}

	if err := broadcastInvalidate(id); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Invalidation broadcast for %s\n", id)
	return nil
}

// broadcastInvalidate publishes a player-update so running relays refresh
// their cached state. A missing bus is reported but not fatal: the change
// is already durable in the database.
func broadcastInvalidate(id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := openBus(ctx)
	if err != nil {
		yellow := color.New(color.FgYellow)
		yellow.Printf("  (bus unreachable, relays will refresh on reconnect: %v)\n", err)
		return nil
	}
	defer b.Close()

	if err := b.Publish(ctx, bus.TopicPlayerUpdate, id.String()); err != nil {
		return fmt.Errorf("publishing invalidation: %w", err)
	}
	return nil
}
