package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

var DefaultDocumentServiceConfig = types.DocumentServiceConfig{
	MaxChunkSize: 1000,
	OverlapSize:  100,
}

var pagesPattern = regexp.MustCompile(`Pages:\s+(\d+)`)

// DocumentService turns files on disk into text chunks.
type DocumentService struct {
	maxChunkSize int
	overlapSize  int
	logger       *zap.Logger
}

func NewDocumentService(config types.DocumentServiceConfig, logger *zap.Logger) *DocumentService {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultDocumentServiceConfig.MaxChunkSize
	}
	if config.OverlapSize < 0 || config.OverlapSize >= config.MaxChunkSize {
		config.OverlapSize = 0
	}
	return &DocumentService{
		maxChunkSize: config.MaxChunkSize,
		overlapSize:  config.OverlapSize,
		logger:       logger,
	}
}

// ExtractChunks reads the file at path and splits it into chunks.
// PDFs are read page by page; every other file is treated as UTF-8 text.
func (s *DocumentService) ExtractChunks(ctx context.Context, path string) ([]types.DocumentChunk, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return s.extractPDF(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not a text document", path)
	}

	metadata := types.DocumentMetadata{
		Title:      filepath.Base(path),
		Source:     path,
		TotalPages: 1,
	}
	return s.createChunks(cleanText(string(data)), metadata), nil
}

func (s *DocumentService) extractPDF(ctx context.Context, path string) ([]types.DocumentChunk, error) {
	totalPages, err := getNumPages(ctx, path)
	if err != nil {
		return nil, err
	}

	var chunks []types.DocumentChunk
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := s.extractText(ctx, path, pageNum)
		if err != nil {
			s.logger.Warn("failed to extract page text",
				zap.String("path", path),
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		metadata := types.DocumentMetadata{
			Title:      filepath.Base(path),
			Source:     path,
			PageNum:    pageNum,
			TotalPages: totalPages,
		}
		chunks = append(chunks, s.createChunks(cleanText(text), metadata)...)
	}
	return chunks, nil
}

// extractText tries pdftotext first and falls back to OCR.
func (s *DocumentService) extractText(ctx context.Context, path string, pageNumber int) (string, error) {
	text, err := extractTextWithPdftotext(ctx, path, pageNumber)
	if err == nil && text != "" {
		return text, nil
	}
	text, err = extractTextWithTesseract(ctx, path, pageNumber)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// createChunks splits text into overlapping chunks that end on a sentence
// or word boundary where one exists.
func (s *DocumentService) createChunks(text string, metadata types.DocumentMetadata) []types.DocumentChunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []types.DocumentChunk
	add := func(content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		md := metadata
		md.ChunkIndex = len(chunks)
		chunks = append(chunks, types.DocumentChunk{
			Content:  content,
			Page:     metadata.PageNum,
			Metadata: md,
		})
	}

	textLen := len(text)
	currentPos, prevEnd := 0, 0
	for currentPos < textLen {
		chunkEnd := currentPos + s.maxChunkSize
		if chunkEnd >= textLen {
			add(text[currentPos:])
			break
		}

		// a chunk must reach past the previous one, not end inside the overlap
		end := chunkBoundary(text, max(currentPos, prevEnd), chunkEnd)
		add(text[currentPos:end])
		prevEnd = end

		next := alignRuneStart(text, end-s.overlapSize)
		if next > 0 && text[next-1] != ' ' {
			if sp := strings.IndexByte(text[next:end], ' '); sp >= 0 {
				next += sp + 1
			}
		}
		if next <= currentPos {
			next = end
		}
		currentPos = next
	}
	return chunks
}

// chunkBoundary returns the end of a chunk starting at start whose hard
// limit is limit: just after the last sentence end, else at the last space.
func chunkBoundary(text string, start, limit int) int {
	for i := limit - 1; i > start; i-- {
		if text[i] == '.' || text[i] == '?' || text[i] == '!' {
			return i + 1
		}
	}
	for i := limit - 1; i > start; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i
		}
	}
	if end := alignRuneStart(text, limit); end > start {
		return end
	}
	return limit
}

func alignRuneStart(text string, pos int) int {
	if pos <= 0 {
		return 0
	}
	for pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

func extractTextWithPdftotext(ctx context.Context, path string, pageNumber int) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		path, "-")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext page %d: %w", pageNumber, err)
	}
	if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

func extractTextWithTesseract(ctx context.Context, pdfPath string, pageNumber int) (string, error) {
	tempFolder, err := os.MkdirTemp("", "ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempFolder)

	convertCmd := exec.CommandContext(ctx, "pdftoppm", "-f", strconv.Itoa(pageNumber), "-l", strconv.Itoa(pageNumber), "-png", pdfPath, filepath.Join(tempFolder, "page"))
	if err := convertCmd.Run(); err != nil {
		return "", fmt.Errorf("converting page %d to image: %w", pageNumber, err)
	}
	files, err := filepath.Glob(filepath.Join(tempFolder, "page-*.png"))
	if err != nil || len(files) == 0 {
		return "", fmt.Errorf("no rendered image for page %d", pageNumber)
	}

	ocrCmd := exec.CommandContext(ctx, "tesseract",
		files[0],
		"stdout",
		"-l", "eng",
		"--oem", "3", // LSTM engine
		"--psm", "3", // automatic page segmentation
	)
	var ocrOut bytes.Buffer
	ocrCmd.Stdout = &ocrOut
	if err := ocrCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}
	if trimmed := strings.TrimSpace(ocrOut.String()); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

// getNumPages uses pdfinfo to get the total number of pages in a PDF file
func getNumPages(ctx context.Context, pdfPath string) (int, error) {
	cmd := exec.CommandContext(ctx, "pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running pdfinfo: %w", err)
	}

	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		if matches := pagesPattern.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}

	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

var textReplacer = strings.NewReplacer(
	"\u0000", "", // Null character
	"�", "", // Unicode replacement character
	"\u001b", "", // Escape character
	"\r", "",
	"\f", "\n",
)

func cleanText(text string) string {
	cleaned := textReplacer.Replace(text)
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}
	return strings.TrimSpace(cleaned)
}
