package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"github.com/a-h/clazylsp/clazy"
	"github.com/a-h/clazylsp/config"
	"github.com/a-h/clazylsp/lsp"
	"github.com/a-h/clazylsp/server"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "clazylsp",
		Short:        "Language server for the clazy Qt linter",
		Long:         "clazylsp runs clazy over C++ documents and reports its findings and fixes to editors over the Language Server Protocol.",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a TOML config file (default "+config.FileName+" in the working directory)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log debug output")
	addServeFlags(rootCmd)

	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the language server over stdio",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runServe,
	}
	addServeFlags(serveCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(versionCmd)
	return rootCmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("log", filepath.Join(os.TempDir(), "clazylsp.log"), "file to write logs to")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logFile, err := cmd.Flags().GetString("log")
	if err != nil {
		return err
	}
	lf, err := os.Create(logFile)
	if err != nil {
		return fmt.Errorf("failed to create log output file: %w", err)
	}
	defer lf.Close()
	log := slog.New(slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: logLevel(cmd)}))

	c, err := loadConfig(cmd)
	if err != nil {
		log.Error("failed to load config", slog.Any("error", err))
		return err
	}

	mux := lsp.NewMux(log, os.Stdin, os.Stdout)
	s := server.New(log, mux, clazy.NewRunner(log, nil), c, version)
	s.Register(mux)
	err = mux.Process(cmd.Context())
	s.Wait()
	if err != nil {
		log.Error("processing stopped", slog.Any("error", err))
		return err
	}
	log.Info("exited")
	return nil
}

func loadConfig(cmd *cobra.Command) (c config.Config, err error) {
	fileName, err := cmd.Flags().GetString("config")
	if err != nil {
		return c, err
	}
	if fileName == "" {
		fileName = config.FileName
	}
	return config.Load(fileName)
}

func logLevel(cmd *cobra.Command) slog.Level {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
