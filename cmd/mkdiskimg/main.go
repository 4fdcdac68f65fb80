// Command mkdiskimg builds, seeds and inspects raw ParvaFS disk images
// from the host, the way biscuit/src/kernel/chentry.go is a small,
// single-purpose, log.Fatal-on-error host binary supporting the kernel's
// build, and the way rcornwell/S370 structures its operator tooling as
// cobra subcommands. It exists so the end-to-end scenarios of spec.md §8
// (boot against a pre-seeded volume, "list" showing known files) can be
// driven without a real ATA disk or emulator.
package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"parvaos/internal/kconfig"
	"parvaos/internal/parvafs"
)

// defaultDataBlocks sizes a freshly formatted image with enough spare
// data blocks for test fixtures beyond the root directory's own block.
const defaultDataBlocks = 4096

func main() {
	root := &cobra.Command{
		Use:   "mkdiskimg",
		Short: "Build and inspect raw ParvaFS disk images",
	}
	root.AddCommand(newFormatCmd(), newSeedCmd(), newInspectCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newFormatCmd() *cobra.Command {
	var dataBlocks int
	cmd := &cobra.Command{
		Use:   "format <image>",
		Short: "Write a fresh superblock, zeroed bitmap, and empty root directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sectors := int64(kconfig.DataAddrOffset + uint32(dataBlocks))
			dev, err := CreateFileDevice(args[0], sectors)
			if err != nil {
				return err
			}
			defer dev.Close()

			if _, ferr := parvafs.Format(dev); ferr != 0 {
				return fmt.Errorf("format: %s", ferr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "formatted %s (%d sectors)\n", args[0], sectors)
			return nil
		},
	}
	cmd.Flags().IntVar(&dataBlocks, "data-blocks", defaultDataBlocks, "number of data blocks in the image, including the root directory's block")
	return cmd
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <image> <name>=<content> [<name>=<content> ...]",
		Short: "Create files in the root directory of an already-formatted image",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := OpenFileDevice(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()

			fs, ferr := parvafs.Mount(dev)
			if ferr != 0 {
				return fmt.Errorf("mount: %s", ferr)
			}
			root := fs.Root()
			for _, spec := range args[1:] {
				name, content, ok := splitNameValue(spec)
				if !ok {
					return fmt.Errorf("seed spec %q must be name=content", spec)
				}
				f, cerr := root.CreateFile(name)
				if cerr != 0 {
					return fmt.Errorf("create %s: %s", name, cerr)
				}
				if werr := f.Write([]byte(content)); werr != 0 {
					return fmt.Errorf("write %s: %s", name, werr)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %s (%d bytes)\n", name, len(content))
			}
			return nil
		},
	}
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Print the superblock status and root directory listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := OpenFileDevice(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()

			fs, ferr := parvafs.Mount(dev)
			if ferr != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "not a ParvaFS volume: %s\n", ferr)
				return nil
			}
			entries, lerr := fs.Root().List()
			if lerr != 0 {
				return fmt.Errorf("list: %s", lerr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ParvaFS volume, %d root entries:\n", len(entries))
			for _, e := range entries {
				kind := "file"
				if e.Kind == parvafs.KindDir {
					kind = "dir"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-5s %8d  %s\n", kind, e.Size, e.Name)
			}
			return nil
		},
	}
	return cmd
}

// splitNameValue parses a "name=content" seed spec.
func splitNameValue(spec string) (name, content string, ok bool) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '=' {
			return spec[:i], spec[i+1:], true
		}
	}
	return "", "", false
}
