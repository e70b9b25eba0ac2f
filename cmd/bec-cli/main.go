package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/adapters/ingest"
	"github.com/mikey/bec-analyzer/internal/config"
	"github.com/mikey/bec-analyzer/internal/factory"
	"github.com/mikey/bec-analyzer/internal/logging"
)

var (
	// Organization flags
	orgDomain  = flag.String("org-domain", "example.com", "Organization domain being protected")
	executives = flag.String("executives", "", "Comma-separated list of executive email addresses")

	// Training flags
	corpusDir = flag.String("corpus-dir", "", "Directory of .eml files to train from")
	demoMode  = flag.Bool("demo", false, "Train from the built-in demo corpus")

	// Fusion weight flags
	trustWeight      = flag.Float64("trust-weight", 0.35, "Fusion weight for the trust graph signal")
	temporalWeight   = flag.Float64("temporal-weight", 0.30, "Fusion weight for the temporal signal")
	stylometryWeight = flag.Float64("stylometry-weight", 0.25, "Fusion weight for the stylometry signal")
	paymentWeight    = flag.Float64("payment-weight", 0.10, "Fusion weight for the payment heuristic")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Build and train the scorer
	scorerFactory := factory.NewScorerFactory(cfg, logger)
	scorer, err := scorerFactory.CreateScorer()
	if err != nil {
		logger.Fatal("Failed to create scorer", zap.Error(err))
	}
	if !scorer.IsReady() {
		logger.Fatal("Scorer has no training data; pass -corpus-dir or -demo")
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	email, err := ingest.ParseMessage(bufio.NewReader(emailReader), time.Now().UTC())
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Timestamp: %s (tz offset %+d min)\n", email.Timestamp.Format(time.RFC3339), email.TimezoneOffset)
	if email.HasPaymentRequest {
		fmt.Printf("Payment request: $%.2f\n", email.AmountRequested)
	}
	fmt.Printf("\n")

	// Analyze email
	stats := scorer.Stats()
	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Trust graph: %d nodes, %d edges\n", stats.GraphNodes, stats.GraphEdges)
	fmt.Printf("Trained senders: %d, style profiles: %d\n", stats.TrainedSenders, stats.StyleProfiles)

	startTime := time.Now()
	verdict, err := scorer.Analyze(email)
	if err != nil {
		logger.Fatal("Failed to analyze email", zap.Error(err))
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Overall risk: %.4f (%s)\n", verdict.OverallRiskScore, verdict.RiskLevel)
	fmt.Printf("Trust risk: %.4f\n", verdict.TrustRisk)
	fmt.Printf("Temporal risk: %.4f\n", verdict.TemporalRisk)
	fmt.Printf("Stylometry risk: %.4f\n", verdict.StylometryRisk)
	fmt.Printf("Payment risk: %.4f\n", verdict.PaymentRisk)
	if len(verdict.RiskFactors) > 0 {
		fmt.Printf("Risk factors:\n")
		for _, factor := range verdict.RiskFactors {
			fmt.Printf("  - %s\n", factor)
		}
	}
	fmt.Printf("Recommendation: %s\n", verdict.Recommendation)
	fmt.Printf("Processing time: %v\n", duration)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("org.domain", *orgDomain)
	if *executives != "" {
		execs := strings.Split(*executives, ",")
		for i, exec := range execs {
			execs[i] = strings.TrimSpace(exec)
		}
		v.Set("org.executives", execs)
	} else {
		v.Set("org.executives", []string{})
	}

	v.Set("fusion.trust_weight", *trustWeight)
	v.Set("fusion.temporal_weight", *temporalWeight)
	v.Set("fusion.stylometry_weight", *stylometryWeight)
	v.Set("fusion.payment_weight", *paymentWeight)

	v.Set("training.corpus_dir", *corpusDir)
	v.Set("training.use_demo_corpus", *demoMode)

	return config.NewFromViper(v)
}
