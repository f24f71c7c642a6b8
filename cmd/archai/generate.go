package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/cmd/archai/ui"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/agents"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/orchestrator"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/regulation"
)

var genFlags struct {
	width        float64
	length       float64
	floors       int
	requirements []string
	strictness   string
	authority    string
	city         string
	bathrooms    int
	parking      string
	style        string
	furniture    bool
	budgetMin    float64
	budgetMax    float64
	out          string
	plain        bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one floor plan from the command line",
	Long: `Runs the full generation pipeline locally and renders live
progress in the terminal. The finished plan is printed as a summary;
--out writes the full JSON payload to a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		project := plan.ProjectConfig{
			PlotWidth:        genFlags.width,
			PlotLength:       genFlags.length,
			Floors:           genFlags.floors,
			Requirements:     genFlags.requirements,
			VastuStrictness:  genFlags.strictness,
			Location:         plan.Location{City: genFlags.city, Authority: genFlags.authority},
			Bathrooms:        genFlags.bathrooms,
			Parking:          genFlags.parking,
			Style:            genFlags.style,
			IncludeFurniture: genFlags.furniture,
			Budget:           plan.CostRange{Min: genFlags.budgetMin, Max: genFlags.budgetMax, Currency: "INR"},
		}
		if project.PlotWidth <= 0 || project.PlotLength <= 0 {
			return fmt.Errorf("plot dimensions must be positive (got %gx%g)", project.PlotWidth, project.PlotLength)
		}

		client, err := gemini.NewClient(gemini.ClientConfig{
			APIKey:      cfg.Gemini.APIKey,
			BaseURL:     cfg.Gemini.BaseURL,
			MaxRetries:  cfg.Gemini.MaxRetries,
			CallTimeout: cfg.Gemini.CallTimeoutDuration(),
			RateLimit:   cfg.Gemini.RateLimitDuration(),
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}

		router := gemini.NewRouter()
		for role, model := range cfg.Models {
			router.Override(gemini.AgentRole(role), model)
		}

		registry := regulation.NewRegistry()
		if path := cfg.Regulation.OverridesPath; path != "" {
			if err := registry.LoadOverrides(path); err != nil {
				logger.Warn("profile overrides not loaded", zap.String("path", path), zap.Error(err))
			}
		}

		orch := orchestrator.New(orchestrator.Config{
			MaxIterations: cfg.Generation.MaxIterations,
		}, agents.Deps{Client: client, Router: router, Logger: logger}, registry, logger)

		events := make(chan progress.Event, 256)
		type outcome struct {
			plan *plan.GeneratedPlan
			err  error
		}
		outCh := make(chan outcome, 1)
		go func() {
			defer close(events)
			p, err := orch.Run(ctx, "local", project, func(ev progress.Event) {
				select {
				case events <- ev:
				default: // UI fell behind; progress is cosmetic here
				}
			})
			outCh <- outcome{plan: p, err: err}
		}()

		if genFlags.plain {
			for ev := range events {
				logger.Info("progress", zap.String("type", string(ev.Type)))
			}
		} else if err := ui.Run(events); err != nil {
			// A broken terminal should not kill a finished generation;
			// drain and fall through to the summary.
			logger.Warn("progress UI failed", zap.Error(err))
			for range events {
			}
		}

		res := <-outCh
		if res.err != nil {
			return res.err
		}

		if genFlags.out != "" {
			data, err := json.MarshalIndent(res.plan, "", "  ")
			if err != nil {
				return fmt.Errorf("encode plan: %w", err)
			}
			if err := os.WriteFile(genFlags.out, data, 0o644); err != nil {
				return fmt.Errorf("write plan: %w", err)
			}
			logger.Info("plan written", zap.String("path", genFlags.out))
		}

		summary, err := ui.RenderSummary(res.plan)
		if err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
		fmt.Println(summary)
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.Float64Var(&genFlags.width, "width", 12, "plot width in metres")
	f.Float64Var(&genFlags.length, "length", 18, "plot length in metres")
	f.IntVar(&genFlags.floors, "floors", 1, "number of floors")
	f.StringSliceVar(&genFlags.requirements, "require", []string{"Master Bedroom", "Kitchen", "Living Room"}, "program requirements")
	f.StringVar(&genFlags.strictness, "vastu", "none", "vastu strictness: none, slight, moderate, strict")
	f.StringVar(&genFlags.authority, "authority", "", "municipal authority tag (bbmp, mcgm, dda, cmda, ghmc, pmc)")
	f.StringVar(&genFlags.city, "city", "", "project city")
	f.IntVar(&genFlags.bathrooms, "bathrooms", 0, "bathroom count (0 = default)")
	f.StringVar(&genFlags.parking, "parking", "", "parking: one_car, two_car, bike")
	f.StringVar(&genFlags.style, "style", "", "architectural style hint")
	f.BoolVar(&genFlags.furniture, "furniture", false, "include the furniture pass")
	f.Float64Var(&genFlags.budgetMin, "budget-min", 0, "budget lower bound")
	f.Float64Var(&genFlags.budgetMax, "budget-max", 0, "budget upper bound")
	f.StringVar(&genFlags.out, "out", "", "write the full plan JSON to this file")
	f.BoolVar(&genFlags.plain, "plain", false, "log progress lines instead of the TUI")
}
