package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/lestrrat-go/dtd"
	"github.com/lestrrat-go/dtd/cache"
	"github.com/lestrrat-go/dtd/catalog"
	"github.com/lestrrat-go/dtd/input"
	"github.com/lestrrat-go/dtd/internal/cliutil"
	"github.com/lestrrat-go/dtd/s11n"
	"github.com/lestrrat-go/dtd/sax"
	"github.com/lestrrat-go/dtd/schema"
)

type cmdopts struct {
	Internal         bool   `long:"internal" description:"parse the files as internal subsets, terminated by ']'"`
	Namespaces       bool   `long:"namespaces" description:"split element and attribute names at their prefix"`
	Catalog          string `long:"catalog" description:"YAML catalog mapping identifiers to local files"`
	CacheFile        string `long:"cache" description:"file to load and save parsed external subsets"`
	Flatten          bool   `long:"flatten" description:"print the processed DTD text instead of the declarations"`
	KeepComments     bool   `long:"keep-comments" description:"keep comments in the flattened output"`
	KeepConditionals bool   `long:"keep-conditionals" description:"keep conditional section markers in the flattened output"`
	KeepPEDecls      bool   `long:"keep-pe-decls" description:"keep parameter entity declarations and references in the flattened output"`
	NoWarnings       bool   `long:"nowarning" description:"do not report recoverable problems"`
	Trace            bool   `long:"trace" description:"log parser activity to stderr"`
	Version          bool   `long:"version"`
}

type lintInput struct {
	name string
	rdr  io.Reader
}

func main() {
	os.Exit(_main())
}

func showVersion() {
	fmt.Printf("dtdlint: using dtd version %s\n", dtd.Version)
}

func showUsage() {
	fmt.Printf(`Usage : dtdlint [options] DTDfiles ...
	Parse the DTD files and output the declarations found
	--internal : parse the files as internal subsets
	--catalog FILE : resolve identifiers through a catalog
	--cache FILE : reuse external subsets parsed by earlier runs
	--flatten : output the processed DTD text
	--version : display the version of the DTD library used
`)
}

func _main() int {
	opts := cmdopts{}
	args, err := flags.ParseArgs(&opts, os.Args[1:])
	if err != nil {
		showUsage()
		return 1
	}

	if opts.Version {
		showVersion()
		return 0
	}

	inputCh := make(chan lintInput)
	errCh := make(chan error, 1)
	switch {
	case len(args) > 0: // filename present
		go func() {
			defer close(inputCh)
			for _, f := range args {
				fh, err := os.Open(f)
				if err != nil {
					errCh <- err
					return
				}
				inputCh <- lintInput{name: f, rdr: fh}
			}
		}()
	case !cliutil.IsTty(os.Stdin.Fd()):
		go func() {
			defer close(inputCh)
			inputCh <- lintInput{name: "-", rdr: os.Stdin}
		}()
	default:
		showUsage()
		return 1
	}

	ctx := context.Background()
	if opts.Trace {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		ctx = dtd.WithTraceLogger(ctx, logger)
	}

	popts, err := parserOptions(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}

	c := cache.New()
	if opts.CacheFile != "" {
		if err := loadCache(c, opts.CacheFile); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		popts = append(popts, dtd.WithCache(c))
	}

	p := dtd.NewParser(popts...)
	for in := range inputCh {
		s, err := lint(ctx, p, opts, in)
		if closer, ok := in.rdr.(io.Closer); ok && in.rdr != os.Stdin {
			_ = closer.Close()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", in.name, err)
			return 1
		}
		if opts.Flatten {
			continue
		}

		d := s11n.Dumper{}
		if err := d.DumpSubset(os.Stdout, s); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
	}

	select {
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	default:
	}

	if opts.CacheFile != "" {
		if err := saveCache(c, opts.CacheFile); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
	}
	return 0
}

func parserOptions(opts cmdopts) ([]dtd.ParseOption, error) {
	popts := []dtd.ParseOption{dtd.WithNamespaces(opts.Namespaces)}

	if opts.Catalog != "" {
		cat, err := catalog.LoadFile(opts.Catalog)
		if err != nil {
			return nil, err
		}
		popts = append(popts, dtd.WithResolver(cat))
	}

	if opts.Flatten {
		popts = append(popts, dtd.WithFlattener(os.Stdout, dtd.FlattenOptions{
			IncludeComments:           opts.KeepComments,
			IncludeConditionalMarkers: opts.KeepConditionals,
			IncludePEDecls:            opts.KeepPEDecls,
		}))
	}

	if opts.NoWarnings {
		popts = append(popts, dtd.WithWarnDuplicates(false))
	} else {
		h := sax.New()
		h.WarningHandler = func(_ sax.Context, loc schema.Location, msg string) error {
			fmt.Fprintf(os.Stderr, "warning: %s at %s\n", msg, loc)
			return nil
		}
		popts = append(popts, dtd.WithSAXHandler(h))
	}
	return popts, nil
}

func lint(ctx context.Context, p *dtd.Parser, opts cmdopts, in lintInput) (*schema.Subset, error) {
	if opts.Internal {
		src := input.NewSource(in.rdr, input.WithSystemID(in.name))
		return p.ParseInternalSubset(ctx, src)
	}

	if in.name != "-" {
		// goes through the resolver so that the cache is consulted
		path, err := filepath.Abs(in.name)
		if err != nil {
			return nil, err
		}
		return p.LoadExternalSubset(ctx, "", path, "", nil)
	}

	src, err := input.NewExternalSource(in.rdr, input.WithSystemID(in.name))
	if err != nil {
		return nil, err
	}
	return p.ParseExternalSubset(ctx, src, nil)
}

func loadCache(c *cache.Cache, path string) error {
	fh, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer fh.Close()
	return c.Load(fh)
}

func saveCache(c *cache.Cache, path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Save(fh); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}
