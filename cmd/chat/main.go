// Command chat is a terminal chat client running the embedded stack against a
// local database: sign in (or register), watch the room list, join a room,
// and type lines to send them.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"chatroom/internal/auth"
	"chatroom/internal/directory"
	"chatroom/internal/domain"
	"chatroom/internal/feed"
	"chatroom/internal/presence"
	"chatroom/internal/security"
	"chatroom/internal/session"
	"chatroom/internal/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Terminal chat client",
	RunE:  runChat,
}

var (
	flagDataPath string
	flagEmail    string
	flagPassword string
	flagName     string
	flagRegister bool
	flagRoom     string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagDataPath, "data-path", "chatroom.db", "path to the chat database")
	flags.StringVar(&flagEmail, "email", "", "account email")
	flags.StringVar(&flagPassword, "password", "", "account password")
	flags.StringVar(&flagName, "name", "", "display name (used with --register)")
	flags.BoolVar(&flagRegister, "register", false, "register a new account instead of logging in")
	flags.StringVar(&flagRoom, "room", "", "room to join on startup (created if missing)")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute chat command")
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagEmail == "" || flagPassword == "" {
		return fmt.Errorf("--email and --password are required")
	}

	db, err := sqlite.Open(flagDataPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := sqlite.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	accountRepo := sqlite.NewAccountRepo(db)
	profileRepo := sqlite.NewProfileRepo(db)
	roomRepo := sqlite.NewRoomRepo(db)
	messageRepo := sqlite.NewMessageRepo(db)

	identity := auth.NewService(accountRepo, profileRepo, security.NewPasswordHasher(0), log.Logger)
	counter := presence.NewCounter(roomRepo, log.Logger)
	dir := directory.New(roomRepo, log.Logger)
	fd := feed.New(messageRepo, roomRepo, counter, log.Logger)

	sess := session.New(identity, profileRepo, log.Logger)
	defer sess.Close()

	if flagRegister {
		if _, err := sess.Register(ctx, flagEmail, flagPassword, flagName); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		log.Info().Str("email", flagEmail).Msg("account created")
	} else {
		if err := sess.Login(ctx, flagEmail, flagPassword); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	me := sess.Current()
	if me == nil {
		return fmt.Errorf("no signed-in principal after login")
	}
	fmt.Printf("signed in as %s\n", me.DisplayName)

	cancelRooms, err := dir.SubscribeRooms(func(rooms []domain.Room) {
		fmt.Println("rooms:")
		for _, room := range rooms {
			line := fmt.Sprintf("  %s (%d here)", room.Name, room.ParticipantCount)
			if room.LastMessage != nil {
				line += fmt.Sprintf(" — %s: %s", room.LastMessage.SenderName, room.LastMessage.Text)
			}
			fmt.Println(line)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe rooms: %w", err)
	}
	defer cancelRooms()

	roomID, err := resolveRoom(ctx, roomRepo, dir, me.ID, flagRoom)
	if err != nil {
		return err
	}

	leave, err := fd.Subscribe(roomID, func(msgs []domain.Message) {
		if len(msgs) == 0 {
			return
		}
		last := msgs[len(msgs)-1]
		prefix := fmt.Sprintf("[%s] %s: ", last.SentAt.Local().Format("15:04"), last.SenderName)
		if feed.GroupedWithPrevious(msgs, len(msgs)-1) {
			// Grouped runs skip the repeated name header.
			prefix = strings.Repeat(" ", len(prefix))
		}
		fmt.Println(prefix + last.Text)
	})
	if err != nil {
		return fmt.Errorf("join room: %w", err)
	}
	defer leave()

	// Read lines until EOF or signal; each non-empty line is a send.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	composer := feed.NewComposer("")
	for {
		select {
		case <-ctx.Done():
			return sess.Logout(context.Background())
		case line, ok := <-lines:
			if !ok {
				return sess.Logout(context.Background())
			}
			composer.SetText(line)
			if err := fd.Send(ctx, roomID, sess.Current(), composer); err != nil {
				log.Warn().Err(err).Msg("send failed, draft kept")
			}
		}
	}
}

// resolveRoom finds the named room, creating it when absent. With no name it
// picks the newest room, or creates a default one in an empty database.
func resolveRoom(ctx context.Context, rooms domain.RoomStore, dir *directory.Directory, creatorID, name string) (string, error) {
	list, err := rooms.ListRooms(ctx)
	if err != nil {
		return "", fmt.Errorf("list rooms: %w", err)
	}

	if name == "" {
		if len(list) > 0 {
			return list[0].ID, nil
		}
		name = "General"
	}
	for _, room := range list {
		if room.Name == name {
			return room.ID, nil
		}
	}

	if err := dir.CreateRoom(ctx, name, "", creatorID); err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	list, err = rooms.ListRooms(ctx)
	if err != nil {
		return "", fmt.Errorf("list rooms: %w", err)
	}
	for _, room := range list {
		if room.Name == name {
			return room.ID, nil
		}
	}
	return "", fmt.Errorf("room %q not found after create", name)
}
