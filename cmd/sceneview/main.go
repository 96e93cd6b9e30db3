// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Sceneview renders a demo scene whose refractive
// objects display environment maps captured from the
// scene itself.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spf13/cobra"

	"github.com/gviegas/sceneview/envmap"
	"github.com/gviegas/sceneview/node"
	"github.com/gviegas/sceneview/scene"
	"github.com/gviegas/sceneview/viewer"
)

var (
	cfgPath string
	verbose bool
	outPath string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sceneview",
		Short:        "Render a scene with dynamic environment maps",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(h))
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "TOML configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log captures and frames")
	root.AddCommand(renderCmd(), captureCmd(), configCmd())
	return root
}

func loadConfig() (viewer.Config, error) {
	if cfgPath == "" {
		return viewer.DefaultConfig(), nil
	}
	return viewer.LoadConfig(cfgPath)
}

func newViewer() (*viewer.Viewer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	v, err := viewer.New(&cfg)
	if err != nil {
		return nil, err
	}
	if err = viewer.BuildDemo(v); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func renderCmd() *cobra.Command {
	var skipEnv bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a frame to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			v, err := newViewer()
			if err != nil {
				return err
			}
			defer v.Close()
			if !skipEnv {
				// Objects whose capture failed still
				// show the sky.
				if err := v.RegenerateEnvMaps(); err != nil {
					slog.Warn("some environment maps were not generated", "err", err)
				}
			}
			if err = v.Frame(); err != nil {
				return err
			}
			img, err := v.Image()
			if err != nil {
				return err
			}
			if err = imgio.Save(outPath, img, imgio.PNGEncoder()); err != nil {
				return err
			}
			slog.Info("frame saved", "path", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "frame.png", "output file")
	cmd.Flags().BoolVar(&skipEnv, "no-envmap", false, "do not generate environment maps")
	return cmd
}

func captureCmd() *cobra.Command {
	var name string
	var level int
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture the environment map of a model into six PNG files",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			v, err := newViewer()
			if err != nil {
				return err
			}
			defer v.Close()
			cfg := v.Config()
			s := v.Scene()
			n := s.Lookup(name)
			if n == node.Nil || s.Kind(n) != scene.KindModel {
				return fmt.Errorf("sceneview: no model named %q", name)
			}
			origin, err := envmap.ParseOrigin(cfg.Origin)
			if err != nil {
				return err
			}
			eye, err := envmap.EyeFor(s, n, v.Camera(), origin)
			if err != nil {
				return err
			}
			param := envmap.DefaultParam(cfg.EnvMapSize)
			param.Eye = eye
			param.Exclude = n
			param.Near = cfg.Near
			param.Far = cfg.Far
			param.Clear = cfg.ClearColor
			tex, err := envmap.Generate(v.Renderer(), s, &param)
			if err != nil {
				return err
			}
			defer tex.Free()
			if err = os.MkdirAll(outPath, 0o755); err != nil {
				return err
			}
			if err = viewer.SaveCube(tex, level, outPath, name+"_"); err != nil {
				return err
			}
			slog.Info("faces saved", "dir", filepath.Clean(outPath), "node", name, "eye", eye)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", ".", "output directory")
	cmd.Flags().StringVarP(&name, "node", "n", viewer.DemoProbe, "model to capture around")
	cmd.Flags().IntVar(&level, "level", 0, "mip level to save")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
