package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dasmlab/mtbridge/pkg/service"
	"github.com/sirupsen/logrus"
)

var (
	serverAddr = flag.String("addr", "localhost:50051", "gRPC server address")
	sourceLang = flag.String("source", "en", "Source language code (e.g., en, en_US)")
	targetLang = flag.String("target", "fr", "Target language code (e.g., fr, pt_BR)")
	textFile   = flag.String("file", "", "Path to text file to translate")
	text       = flag.String("text", "", "Text to translate (if file not provided)")
	languages  = flag.Bool("languages", false, "List the provider's supported languages and exit")
	timeout    = flag.Duration("timeout", 30*time.Second, "Request timeout")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create client connection")
	}
	defer conn.Close()

	client := service.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *languages {
		codes, err := client.SupportedLanguages(ctx)
		if err != nil {
			logger.WithError(err).Fatal("Failed to list supported languages")
		}
		fmt.Println(strings.Join(codes, "\n"))
		return
	}

	var textToTranslate string
	if *textFile != "" {
		data, err := os.ReadFile(*textFile)
		if err != nil {
			logger.WithError(err).Fatalf("Failed to read file: %s", *textFile)
		}
		textToTranslate = string(data)
	} else if *text != "" {
		textToTranslate = *text
	} else {
		logger.Fatal("Either -file or -text must be provided")
	}

	logger.WithFields(logrus.Fields{
		"server":      *serverAddr,
		"source_lang": *sourceLang,
		"target_lang": *targetLang,
		"text_length": len(textToTranslate),
	}).Info("Sending translation request...")

	startTime := time.Now()
	candidates, err := client.Translate(ctx, *sourceLang, *targetLang, textToTranslate)
	if err != nil {
		logger.WithError(err).Fatal("Translation failed")
	}

	logger.WithFields(logrus.Fields{
		"candidates":  len(candidates),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Translation completed")

	if len(candidates) == 0 {
		fmt.Println("No translation available for this language pair.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	for i, c := range candidates {
		fmt.Printf("[%d] %s (quality %d, %s)\n", i+1, c.Text, c.Quality, c.Service)
		if c.Source != "" && c.Source != textToTranslate {
			fmt.Printf("    source: %s\n", c.Source)
		}
	}
	fmt.Println(strings.Repeat("=", 80))
}
