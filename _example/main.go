package main

import (
	"context"
	"fmt"
	"log"

	"github.com/shelfdex/shelfdex"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/logger"
)

func main() {
	cfg := config.Default()
	cfg.Index.Path = "data/example-index.sdx"
	cfg.Metrics.Enabled = false
	logger.Setup(cfg.Logging.Level, "text")

	engine, err := shelfdex.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close()

	ctx := context.Background()
	docs := []shelfdex.Document{
		{ID: shelfdex.DocRef{Kind: shelfdex.KindManual, ID: "1"}.String(), Text: "Espresso machine user manual. Descale the boiler every three months using citric acid."},
		{ID: shelfdex.DocRef{Kind: shelfdex.KindManual, ID: "2"}.String(), Text: "Washing machine installation guide. Connect the drain hose before levelling the feet."},
		{ID: shelfdex.DocRef{Kind: shelfdex.KindProduct, ID: "7"}.String(), Text: "Cordless drill, 18V, two batteries, quick charger included."},
	}
	progress, err := engine.Rebuild(ctx, docs)
	if err != nil {
		log.Fatal(err)
	}
	for p := range progress {
		if p.Stats != nil {
			fmt.Printf("rebuilt: %d documents, %d terms\n", p.Stats.TotalDocuments, p.Stats.TotalTerms)
		}
	}

	results, err := engine.Search(ctx, "machine descale")
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range results {
		ref := shelfdex.ParseDocRef(r.DocID)
		fmt.Printf("%s %s score=%.3f\n", ref.Kind, ref.ID, r.Score)
		for _, s := range r.Snippets {
			fmt.Printf("  ...%s...\n", s.Text)
		}
	}

	fmt.Println("suggestions for 'ma':", engine.Suggest("ma"))
}
