package main

import (
	"flag"
	"log"

	"github.com/danmuck/edgeinfer/internal/config"
)

const defaultPath = "cmd/inferctl/config.toml"

func main() {
	kind := flag.String("kind", "inferctl", "config kind: inferctl|bench")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to "+defaultPath+")")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath
		}
		cfg, err := config.Load(path)
		if err != nil {
			log.Fatal(err)
		}
		if err := cfg.Validate(true); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated config at %s (%s)", path, cfg.Summary())
		return
	}

	target := *output
	if target == "" {
		target = defaultPath
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
