package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	cuplroot "github.com/galcupl/cupl"
	"github.com/galcupl/cupl/internal/config"
	cupllang "github.com/galcupl/cupl/internal/cupl"
	"github.com/galcupl/cupl/internal/gal"
	"github.com/galcupl/cupl/internal/jed"
)

var (
	verbose bool
	logger  = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cupl",
		Short:         "WinCUPL-compatible GAL fuse-map compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newBuildCmd(), newBurnCmd(), newDevicesCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the compiler version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(cuplroot.Version())
			return nil
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "list supported device mnemonics",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range []string{"g16v8as", "g20v8as", "g22v10", "g20ra10"} {
				fmt.Println(d)
			}
			return nil
		},
	}
}

func newBuildCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "build <file.pld>",
		Short: "compile a PLD source file into a JEDEC fuse map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath := args[0]
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading .cuplrc.yaml: %w", err)
			}
			if outPath == "" {
				base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath)) + ".jed"
				if cfg.OutputDir != "" {
					outPath = filepath.Join(cfg.OutputDir, base)
				} else {
					outPath = filepath.Join(filepath.Dir(inPath), base)
				}
			}
			logger.Debug("building", "input", inPath, "output", outPath)
			content, g, err := buildJed(inPath)
			if err != nil {
				return err
			}
			return writeJed(content, g, outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output JED file")
	return cmd
}

func newBurnCmd() *cobra.Command {
	var device string
	cmd := &cobra.Command{
		Use:   "burn <file.jed|file.pld>",
		Short: "program a device via minipro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading .cuplrc.yaml: %w", err)
			}
			return runBurn(args[0], device, cfg)
		},
	}
	cmd.Flags().StringVarP(&device, "device", "p", "", "minipro device name (override)")
	return cmd
}

func buildJed(inPath string) (cupllang.Content, *gal.GAL, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return cupllang.Content{}, nil, err
	}
	content, err := cupllang.Parse(data)
	if err != nil {
		return cupllang.Content{}, nil, err
	}
	g, err := cupllang.Compile(content)
	if err != nil {
		return cupllang.Content{}, nil, err
	}
	return content, g, nil
}

func writeJed(content cupllang.Content, g *gal.GAL, outPath string) error {
	jedText := jed.MakeJEDEC(jed.Config{
		SecurityBit: false,
		Header:      headerLines(content, g.Chip),
	}, g)
	return os.WriteFile(outPath, []byte(jedText), 0644)
}

func runBurn(inPath, deviceOverride string, cfg config.Config) error {
	ext := strings.ToLower(filepath.Ext(inPath))
	jedPath := inPath
	if ext == ".pld" {
		tempDir, err := os.MkdirTemp("", "cupl-burn-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tempDir)
		base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
		jedPath = filepath.Join(tempDir, base+".jed")
		content, g, err := buildJed(inPath)
		if err != nil {
			return err
		}
		if err := writeJed(content, g, jedPath); err != nil {
			return err
		}
	} else if ext != ".jed" {
		return errors.New("burn requires a .jed or .pld input")
	}

	data, err := os.ReadFile(jedPath)
	if err != nil {
		return err
	}
	device := deviceOverride
	if device == "" {
		device, err = jedDeviceFromFile(data)
		if err != nil {
			if cfg.MiniproDevice == "" {
				return err
			}
			device = cfg.MiniproDevice
		}
	}
	logger.Debug("burning", "device", device, "file", jedPath)

	cmd := exec.Command("minipro", "-p", device, "-w", jedPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

func jedDeviceFromFile(data []byte) (string, error) {
	s := string(data)
	s = strings.TrimPrefix(s, "\x02")
	if idx := strings.Index(s, "\x03"); idx >= 0 {
		s = s[:idx]
	}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "*") {
			break
		}
		if strings.HasPrefix(line, "Device") {
			v := strings.TrimSpace(strings.TrimPrefix(line, "Device"))
			if v == "" {
				return "", errors.New("JED device header is empty")
			}
			fields := strings.Fields(v)
			if len(fields) == 0 {
				return "", errors.New("JED device header is empty")
			}
			return fields[0], nil
		}
	}
	return "", errors.New("JED device header not found")
}

func headerLines(c cupllang.Content, chip gal.Chip) []string {
	lines := []string{
		fmt.Sprintf("CUPlang        %s", cuplroot.Version()),
		fmt.Sprintf("Device          %s", headerDeviceName(chip)),
	}
	keys := []string{"Name", "Partno", "Revision", "Date", "Designer", "Company", "Assembly", "Location"}
	for _, k := range keys {
		if v := strings.TrimSpace(c.Meta[k]); v != "" {
			lines = append(lines, fmt.Sprintf("%-15s %s", k, v))
		}
	}
	return lines
}

func headerDeviceName(chip gal.Chip) string {
	return strings.ToLower(strings.TrimPrefix(chip.Name(), "GAL"))
}
