package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/fruitbox12/zik.sh/bin/zik/ui"
	"github.com/fruitbox12/zik.sh/server"
	"github.com/fruitbox12/zik.sh/server/profile"
	"github.com/fruitbox12/zik.sh/store"
	"github.com/fruitbox12/zik.sh/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "zik",
	Short: "A conversational client with auto-executed tool directives",
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		prof, st, err := bootstrap()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.NewServer(prof, st)
		g, ctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			srv.Shutdown(context.Background())
			return nil
		})
		return g.Wait()
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal chat client",
	RunE: func(cmd *cobra.Command, _ []string) error {
		prof, st, err := bootstrap()
		if err != nil {
			return err
		}
		defer st.Close()
		return ui.Run(cmd.Context(), prof, st)
	},
}

func bootstrap() (*profile.Profile, *store.Store, error) {
	loadEnv()
	prof, err := profile.GetProfile()
	if err != nil {
		return nil, nil, err
	}

	driver, err := db.NewDriver(prof)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(driver)
	if err := st.Migrate(context.Background()); err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return prof, st, nil
}

// loadEnv loads optional overrides from .env in the data directory. It runs
// before the profile is resolved so the values are visible to the ZIK_*
// environment lookup.
func loadEnv() {
	data := viper.GetString("data")
	if data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		data = filepath.Join(home, ".zik")
	}
	_ = godotenv.Load(filepath.Join(data, ".env"))
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of the server, can be "dev" or "prod"`)
	flags.String("addr", "", "binding address of the HTTP API")
	flags.Int("port", 8102, "binding port of the HTTP API")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", `storage driver, can be "sqlite", "mysql" or "postgres"`)
	flags.String("dsn", "", "data source name of the storage driver")
	flags.Bool("auto-execute", true, "execute directive blocks embedded in assistant messages")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	if err := viper.BindPFlag("autoexecute", flags.Lookup("auto-execute")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("exit", "err", err)
		os.Exit(1)
	}
}
