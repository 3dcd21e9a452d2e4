// Package cli wires the jailcfg commands: property get/set and mount
// table generation.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	defs "jailcfg/definitions"
	jailerr "jailcfg/errors"
	log "jailcfg/logger"
	"jailcfg/pkg/jail"
	"jailcfg/pkg/resource"
	"jailcfg/pkg/storage"
)

var (
	logLevel string
	poolName string
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jailcfg",
		Short:         "manage jail configuration, defaults and mount tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(&log.Config{Level: logLevel})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level")
	root.PersistentFlags().StringVar(&poolName, "pool", "", "storage pool (default: first active pool)")

	root.AddCommand(newGetCommand())
	root.AddCommand(newSetCommand())
	root.AddCommand(newFstabCommand())
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}

func newGetCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "get <jail> [property]",
		Short: "print one property or the full property listing",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJail(args[0])
			if err != nil {
				return err
			}
			if _, err := j.Config.Read(); err != nil {
				return err
			}

			if all || len(args) < 2 || args[1] == "all" {
				listing := map[string]string{}
				for _, key := range j.Config.AllProperties() {
					value, err := j.Config.GetString(key)
					if err != nil {
						continue
					}
					listing[key] = value
				}
				out, err := yaml.Marshal(listing)
				if err != nil {
					return err
				}
				cmd.Print(string(out))
				return nil
			}

			value, err := j.Config.GetString(args[1])
			if err != nil {
				return err
			}
			cmd.Println(value)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "print all properties")
	return cmd
}

func newSetCommand() *cobra.Command {
	var skipInvalid bool
	cmd := &cobra.Command{
		Use:   "set <jail> <key=value>...",
		Short: "set properties and save the configuration",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJail(args[0])
			if err != nil {
				return err
			}
			if _, err := j.Config.Read(); err != nil {
				return err
			}

			changed := false
			for _, pair := range args[1:] {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return errors.Wrapf(jailerr.ParseFailed, "expected key=value, got %q", pair)
				}
				applied, err := j.Config.Set(key, value, skipInvalid)
				if err != nil {
					return err
				}
				changed = changed || applied
			}

			if !changed {
				log.Debug("no property changed, skipping save")
				return nil
			}
			log.Pretty("saving configuration: %v", j.Config.AllProperties())
			return j.Config.Save()
		},
	}
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "store values that fail validation unvalidated")
	return cmd
}

func newFstabCommand() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "fstab <jail>",
		Short: "print or regenerate the jail mount table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJail(args[0])
			if err != nil {
				return err
			}
			if _, err := j.Config.Read(); err != nil {
				return err
			}
			table, err := j.Fstab()
			if err != nil {
				return err
			}
			if save {
				return table.Save()
			}
			cmd.Print(table.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "write the table back including regenerated entries")
	return cmd
}

// openJail resolves the jail resource below <pool>/iocage/jails along
// with the shared root and releases datasets.
func openJail(name string) (*jail.Jail, error) {
	mgr := storage.NewZFSManager(nil)
	locator := resource.NewLocator(mgr, nil)

	pool := poolName
	if pool == "" {
		pools, err := mgr.Pools()
		if err != nil {
			return nil, err
		}
		if len(pools) == 0 {
			return nil, errors.Wrap(jailerr.StoreNotFound, "no active pool")
		}
		pool = pools[0]
	}

	rootName := fmt.Sprintf("%s/%s", pool, defs.RootDatasetName)
	root, err := locator.Resolve(rootName)
	if err != nil {
		return nil, err
	}
	releases, err := locator.Resolve(fmt.Sprintf("%s/%s", rootName, defs.ReleasesDatasetName))
	if err != nil {
		return nil, err
	}
	rsrc, err := locator.Resolve(fmt.Sprintf("%s/%s/%s", rootName, defs.JailsDatasetName, name))
	if err != nil {
		return nil, err
	}

	j, err := jail.New(jail.Options{
		Resource:           rsrc,
		ReleasesMountpoint: releases.Path(),
		DefaultsPath:       filepath.Join(root.Path(), defs.DefaultsFileName),
	})
	if err != nil {
		return nil, err
	}
	log.WithField("jail", j.Name()).Debug("jail opened")
	return j, nil
}
