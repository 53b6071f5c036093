package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/spf13/pflag"

	"github.com/shelflens/backend/config"
	"github.com/shelflens/backend/internal/app"
	"github.com/shelflens/backend/internal/domain"
	"github.com/shelflens/backend/internal/infrastructure/export"
	"github.com/shelflens/backend/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("shelflens", pflag.ContinueOnError)
	keyword := flags.StringP("keyword", "k", "", "product keyword to search, e.g. \"mop spray\"")
	filter := flags.String("filter", "", "SearchAPI rh refinement")
	flags.IntP("pages", "p", 3, "number of result pages to fetch")
	flags.String("domain", "", "Amazon domain (default from config)")
	flags.String("language", "", "result language (default from config)")
	flags.StringP("out", "o", "", "report directory (default from config)")
	flags.String("brands", "", "known brands file (.py, .yaml or .txt)")
	flags.Float64("threshold", 88, "fuzzy brand match threshold (0-100]")
	flags.Bool("no-fuzzy", false, "disable fuzzy brand matching")
	flags.String("cache", "", "page cache: memory or redis")
	flags.String("audit", "", "unmatched title store: file or sqlite")
	flags.String("log-level", "", "log level")
	flags.Bool("debug", false, "trace brand matching decisions")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if *keyword == "" && flags.NArg() > 0 {
		*keyword = strings.Join(flags.Args(), " ")
	}
	if strings.TrimSpace(*keyword) == "" {
		fmt.Fprintln(os.Stderr, "keyword is required (--keyword \"mop spray\")")
		return 2
	}

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("failed to initialize")
		return 1
	}
	defer a.Close()

	result, err := a.Service.Search(ctx, &domain.SearchRequest{
		Keyword:      *keyword,
		Pages:        cfg.SearchAPI.Pages,
		AmazonDomain: cfg.SearchAPI.AmazonDomain,
		Language:     cfg.SearchAPI.Language,
		Filter:       *filter,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoResults) {
			fmt.Println("Nenhum resultado extraído. Confira o JSON de resposta e o mapeamento de campos.")
			return 1
		}
		log.WithError(err).Error("search failed")
		return 1
	}

	path, err := export.WriteReport(cfg.Output.Dir, result, time.Now())
	if err != nil {
		log.WithError(err).Error("failed to write report")
		return 1
	}

	fmt.Printf("Páginas: %d | linhas brutas: %d | únicas: %d | sem marca: %d\n",
		result.Pages, result.TotalRaw, result.TotalUnique, result.Unmatched)
	fmt.Printf("CSV salvo em: %s\n", path)
	return 0
}
