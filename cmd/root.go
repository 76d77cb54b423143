package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/example/aimharder-scheduler/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "aimsched",
		Short:         "Books recurring AimHarder classes and sends workout digests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("box-name", config.DefaultBoxName, "box subdomain, e.g. wezonearturosoria")
	pf.Int("box-id", config.DefaultBoxID, "numeric box id")
	pf.String("schedule", "schedule.json", "path to the schedule file (JSON or YAML)")
	pf.String("only", "", "process only the box with this id or name")
	pf.String("log-level", "info", "debug, info, warn or error")
	bind(v, pf.Lookup("box-name"), config.KeyBoxName)
	bind(v, pf.Lookup("box-id"), config.KeyBoxID)
	bind(v, pf.Lookup("schedule"), config.KeySchedule)
	bind(v, pf.Lookup("only"), config.KeyOnly)
	bind(v, pf.Lookup("log-level"), config.KeyLogLevel)

	root.AddCommand(newVersionCmd())
	root.AddCommand(newBookCmd(v))
	root.AddCommand(newDigestCmd(v))

	return root
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bind makes a flag the highest-precedence source for key. It only fails for
// a nil flag, which is a programming error.
func bind(v *viper.Viper, f *pflag.Flag, key string) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
