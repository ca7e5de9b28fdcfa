// dnars encodes payloads into Reed-Solomon protected artifacts, stores
// them in leveldb, and recovers them after symbol corruption or
// erasure. It also ships a corruption tool, an integrity verifier and
// a benchmark harness.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nsf/jsondiff"
	"github.com/spf13/cobra"

	"github.com/dnastore/dnars/bench"
	"github.com/dnastore/dnars/dna"
	"github.com/dnastore/dnars/log"
	"github.com/dnastore/dnars/pipeline"
	"github.com/dnastore/dnars/rs"
	"github.com/dnastore/dnars/rserrors"
	"github.com/dnastore/dnars/storage"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func fatal(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

// parseErasures turns "1:0,4,9;3:2" into per-block erasure positions.
func parseErasures(spec string) (pipeline.Erasures, error) {
	if spec == "" {
		return nil, nil
	}
	out := make(pipeline.Erasures)
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		blockStr, posStr, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("bad erasure spec %q, want block:pos,pos", part)
		}
		block, err := strconv.Atoi(blockStr)
		if err != nil {
			return nil, fmt.Errorf("bad block index %q: %w", blockStr, err)
		}
		for _, p := range strings.Split(posStr, ",") {
			pos, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("bad erasure position %q: %w", p, err)
			}
			out[block] = append(out[block], pos)
		}
	}
	return out, nil
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "dnars",
		Short: "Reed-Solomon artifact store",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		dbPath   string
		logLevel string
		debug    string
	)

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "dnars.db", "leveldb path (empty for in-memory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "log level (trace|debug|info|warn|error|crit)")
	rootCmd.PersistentFlags().StringVar(&debug, "debug", "", "comma separated debug modules, or 'all'")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		log.InitLogger(logLevel)
		log.EnableModules(debug)
	}

	var (
		inPath  string
		name    string
		k       int
		nsym    int
		workers int
	)
	var encodeCmd = &cobra.Command{
		Use:   "encode",
		Short: "Encode a payload into a stored artifact",
		Run: func(cmd *cobra.Command, args []string) {
			payload, err := os.ReadFile(inPath)
			if err != nil {
				fatal("read %s: %v", inPath, err)
			}

			proc, err := pipeline.NewProcessor(pipeline.Config{DataSymbols: k, ParitySymbols: nsym, Workers: workers})
			if err != nil {
				fatal("bad geometry: %v", err)
			}

			art, err := proc.Encode(context.Background(), payload)
			if err != nil {
				fatal("encode: %v", err)
			}

			store, err := storage.NewArtifactStore(dbPath)
			if err != nil {
				fatal("open store %s: %v", dbPath, err)
			}
			defer store.Close()

			if err := store.PutArtifact(name, art); err != nil {
				fatal("store artifact %s: %v", name, err)
			}

			log.Info(log.CLIMonitoring, "artifact stored", "name", name, "blocks", art.Manifest.BlockCount, "checksum", art.Manifest.Checksum.StringShort())
			fmt.Printf("Encoded %d bytes into %d blocks (k=%d nsym=%d)\n", len(payload), art.Manifest.BlockCount, k, nsym)
			fmt.Printf("  checksum: %s\n", art.Manifest.Checksum.Hex())
		},
	}
	encodeCmd.Flags().StringVar(&inPath, "in", "", "input payload file")
	encodeCmd.Flags().StringVar(&name, "name", "", "artifact name")
	encodeCmd.Flags().IntVar(&k, "k", 223, "data symbols per block")
	encodeCmd.Flags().IntVar(&nsym, "nsym", 32, "parity symbols per block")
	encodeCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = NumCPU)")
	encodeCmd.MarkFlagRequired("in")
	encodeCmd.MarkFlagRequired("name")

	var (
		outPath     string
		erasureSpec string
	)
	var decodeCmd = &cobra.Command{
		Use:   "decode",
		Short: "Recover a stored artifact back into its payload",
		Run: func(cmd *cobra.Command, args []string) {
			store, err := storage.NewArtifactStore(dbPath)
			if err != nil {
				fatal("open store %s: %v", dbPath, err)
			}
			defer store.Close()

			art, found, err := store.GetArtifact(name)
			if err != nil {
				fatal("load artifact %s: %v", name, err)
			}
			if !found {
				fatal("artifact %s not found", name)
			}

			erasures, err := parseErasures(erasureSpec)
			if err != nil {
				fatal("%v", err)
			}

			proc, err := pipeline.NewProcessor(art.Manifest.Config())
			if err != nil {
				fatal("bad manifest geometry: %v", err)
			}

			payload, stats, decodeErr := proc.Decode(context.Background(), art, erasures)
			if stats == nil {
				fatal("decode %s: %v", name, decodeErr)
			}
			if err := store.PutReport(name, stats); err != nil {
				fatal("store report %s: %v", name, err)
			}

			fmt.Printf("Blocks: %d  recovered: %d  failed: %d  symbols corrected: %d\n",
				stats.Blocks, stats.Recovered, stats.Failed, stats.SymbolsCorrected)
			for _, rep := range stats.Reports {
				if rep.Error != "" {
					fmt.Printf("  block %d: %s\n", rep.Index, rep.Error)
				}
			}

			if err := os.WriteFile(outPath, payload, 0644); err != nil {
				fatal("write %s: %v", outPath, err)
			}

			if decodeErr != nil {
				fmt.Printf("Decode completed with errors [%s]: %v\n", rserrors.ShortCode(decodeErr), decodeErr)
				os.Exit(1)
			}
			fmt.Printf("Recovered %d bytes to %s\n", len(payload), outPath)
		},
	}
	decodeCmd.Flags().StringVar(&name, "name", "", "artifact name")
	decodeCmd.Flags().StringVar(&outPath, "out", "", "output payload file")
	decodeCmd.Flags().StringVar(&erasureSpec, "erasures", "", "known-bad positions, e.g. '1:0,4;3:2'")
	decodeCmd.MarkFlagRequired("name")
	decodeCmd.MarkFlagRequired("out")

	var (
		blockIndex int
		errCount   int
		seed       int64
	)
	var corruptCmd = &cobra.Command{
		Use:   "corrupt",
		Short: "Flip symbols in one stored block",
		Run: func(cmd *cobra.Command, args []string) {
			store, err := storage.NewArtifactStore(dbPath)
			if err != nil {
				fatal("open store %s: %v", dbPath, err)
			}
			defer store.Close()

			art, found, err := store.GetArtifact(name)
			if err != nil {
				fatal("load artifact %s: %v", name, err)
			}
			if !found {
				fatal("artifact %s not found", name)
			}
			if blockIndex < 0 || blockIndex >= len(art.Blocks) {
				fatal("block index %d out of range [0,%d)", blockIndex, len(art.Blocks))
			}

			block := art.Blocks[blockIndex]
			positions := bench.NewCorruptor(seed).Substitute(block, errCount)
			if err := store.PutBlock(name, blockIndex, block); err != nil {
				fatal("store block: %v", err)
			}

			fmt.Printf("Corrupted block %d of %s at positions %v\n", blockIndex, name, positions)
		},
	}
	corruptCmd.Flags().StringVar(&name, "name", "", "artifact name")
	corruptCmd.Flags().IntVar(&blockIndex, "block", 0, "block index to damage")
	corruptCmd.Flags().IntVar(&errCount, "errors", 1, "symbols to flip")
	corruptCmd.Flags().Int64Var(&seed, "seed", 1, "rng seed")
	corruptCmd.MarkFlagRequired("name")

	var verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Check a stored artifact against its manifest",
		Run: func(cmd *cobra.Command, args []string) {
			store, err := storage.NewArtifactStore(dbPath)
			if err != nil {
				fatal("open store %s: %v", dbPath, err)
			}
			defer store.Close()

			art, found, err := store.GetArtifact(name)
			if err != nil {
				fatal("load artifact %s: %v", name, err)
			}
			if !found {
				fatal("artifact %s not found", name)
			}

			proc, err := pipeline.NewProcessor(art.Manifest.Config())
			if err != nil {
				fatal("bad manifest geometry: %v", err)
			}

			payload, stats, decodeErr := proc.Decode(context.Background(), art, nil)
			if decodeErr != nil {
				fatal("verify %s: decode failed [%s]: %v", name, rserrors.ShortCode(decodeErr), decodeErr)
			}

			// Re-encode the recovered payload and diff the manifests.
			fresh, err := proc.Encode(context.Background(), payload)
			if err != nil {
				fatal("re-encode: %v", err)
			}
			fresh.Manifest.CreatedAt = art.Manifest.CreatedAt

			storedJSON, _ := json.Marshal(art.Manifest)
			freshJSON, _ := json.Marshal(fresh.Manifest)
			diffOpts := jsondiff.DefaultConsoleOptions()
			match, diff := jsondiff.Compare(storedJSON, freshJSON, &diffOpts)
			if match != jsondiff.FullMatch {
				fmt.Println(diff)
				fatal("verify %s: manifest mismatch [%s]", name, rserrors.ShortCode(rserrors.ErrManifestMismatch))
			}

			fmt.Printf("Artifact %s OK: %d blocks, %d symbols corrected during verify\n", name, stats.Blocks, stats.SymbolsCorrected)
		},
	}
	verifyCmd.Flags().StringVar(&name, "name", "", "artifact name")
	verifyCmd.MarkFlagRequired("name")

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored artifacts",
		Run: func(cmd *cobra.Command, args []string) {
			store, err := storage.NewArtifactStore(dbPath)
			if err != nil {
				fatal("open store %s: %v", dbPath, err)
			}
			defer store.Close()

			names, err := store.ListArtifacts()
			if err != nil {
				fatal("list artifacts: %v", err)
			}
			for _, n := range names {
				art, found, err := store.GetArtifact(n)
				if err != nil || !found {
					fmt.Printf("%s (unreadable)\n", n)
					continue
				}
				fmt.Printf("%-24s %8d bytes  %4d blocks  k=%d nsym=%d\n",
					n, art.Manifest.PayloadSize, art.Manifest.BlockCount,
					art.Manifest.DataSymbols, art.Manifest.ParitySymbols)
			}
		},
	}

	var (
		reportPath string
		plotPath   string
		trials     int
	)
	var benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Measure encode/decode throughput and recovery rates",
		Run: func(cmd *cobra.Command, args []string) {
			opts := bench.DefaultOptions()
			opts.DataSymbols = k
			opts.ParitySymbols = nsym
			if trials > 0 {
				opts.Trials = trials
			}

			report, err := bench.Run(context.Background(), opts)
			if err != nil {
				fatal("bench: %v", err)
			}

			if err := bench.WriteJSON(report, reportPath); err != nil {
				fatal("%v", err)
			}
			fmt.Printf("Report written to %s\n", reportPath)

			if plotPath != "" {
				if err := bench.WritePlots(report, plotPath); err != nil {
					fatal("%v", err)
				}
				fmt.Printf("Charts written to %s\n", plotPath)
			}
		},
	}
	benchCmd.Flags().IntVar(&k, "k", 223, "data symbols per block")
	benchCmd.Flags().IntVar(&nsym, "nsym", 32, "parity symbols per block")
	benchCmd.Flags().IntVar(&trials, "trials", 0, "trials per case (0 = default)")
	benchCmd.Flags().StringVar(&reportPath, "report", "bench.json", "JSON report path")
	benchCmd.Flags().StringVar(&plotPath, "plot", "", "optional HTML chart path")

	var selftestCmd = &cobra.Command{
		Use:   "selftest",
		Short: "Run built-in known-answer checks",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSelftest(); err != nil {
				fatal("selftest FAILED: %v", err)
			}
			fmt.Println("selftest OK")
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dnars %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(encodeCmd, decodeCmd, corruptCmd, verifyCmd, listCmd, benchCmd, selftestCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSelftest() error {
	codec := rs.New(4)

	codeword, err := codec.Encode([]int{5, 12, 200})
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if len(codeword) != 7 {
		return fmt.Errorf("codeword length %d, want 7", len(codeword))
	}

	damaged := append([]int(nil), codeword...)
	damaged[1] ^= 0xA5
	res, err := codec.Decode(damaged, nil)
	if err != nil {
		return fmt.Errorf("decode single error: %w", err)
	}
	if res.Corrected != 1 || res.Message[1] != 12 {
		return fmt.Errorf("single error not corrected: got %v", res.Message)
	}

	// Two known-bad positions, both in the message part.
	damaged = append([]int(nil), codeword...)
	damaged[0] = 0
	damaged[2] = 0
	res, err = codec.Decode(damaged, []int{0, 2})
	if err != nil {
		return fmt.Errorf("decode erasures: %w", err)
	}
	if res.Message[0] != 5 || res.Message[2] != 200 {
		return fmt.Errorf("erasures not recovered: got %v", res.Message)
	}

	seq := dna.ToSequence([]int{0, 1, 2, 3})
	if seq != "ACGT" {
		return fmt.Errorf("sequence mapping broken: got %q", seq)
	}

	proc, err := pipeline.NewProcessor(pipeline.Config{DataSymbols: 20, ParitySymbols: 6})
	if err != nil {
		return err
	}
	payload := []byte("the quick brown fox jumps over the lazy dog")
	art, err := proc.Encode(context.Background(), payload)
	if err != nil {
		return fmt.Errorf("pipeline encode: %w", err)
	}
	art.Blocks[0][3] ^= 0xFF
	got, stats, err := proc.Decode(context.Background(), art, nil)
	if err != nil {
		return fmt.Errorf("pipeline decode: %w", err)
	}
	if string(got) != string(payload) || stats.SymbolsCorrected != 1 {
		return fmt.Errorf("pipeline round trip broken")
	}
	return nil
}
