package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/logger"
)

type app struct {
	v   *viper.Viper
	log *zap.Logger
}

func main() {
	a := &app{}
	var envFile string

	root := &cobra.Command{
		Use:           "pdfsum",
		Short:         "Summarize a PDF chapter by chapter with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			a.v = config.NewViper()
			if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
				return err
			}
			log, err := logger.New(a.v.GetString("log-level"), a.v.GetString("log-format"))
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().String("log-level", "info", "debug, info, warn or error")
	root.PersistentFlags().String("log-format", "console", "console or json")

	root.AddCommand(summarizeCmd(a))
	root.AddCommand(chaptersCmd(a))
	root.AddCommand(serveCmd(a))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
