package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/meridian-gis/formkit"
)

func runValidateForm(args []string) error {
	flags := flag.NewFlagSet("validate-form", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: formkit-tools validate-form <form.json> [form2.json ...]")
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("at least one form document is required")
	}

	sugar := zap.S()
	failed := 0
	for _, path := range flags.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := formkit.ValidateFormSpec(data); err != nil {
			sugar.Errorw("invalid form document", "file", path, "error", err)
			failed++
			continue
		}
		spec, err := formkit.ParseFormSpec(data)
		if err != nil {
			sugar.Errorw("form document failed to parse", "file", path, "error", err)
			failed++
			continue
		}
		sugar.Infow("form document is valid",
			"file", path,
			"legacy", spec.Legacy(),
			"tabs", len(spec.Tabs),
			"pages", len(spec.Pages),
			"elements", countElements(spec))
	}
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed validation", failed)
	}
	return nil
}

func countElements(spec *formkit.FormSpec) int {
	total := 0
	for _, tab := range spec.Tabs {
		total += len(tab.AlbumElements) + len(tab.PortraitElements)
	}
	for _, page := range spec.Pages {
		total += len(page.Elements)
	}
	return total
}
