package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/httpd/http/status"
	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v2"
)

// File mirrors Config the way configuration files spell it. Every field is optional, only
// the presented ones override the defaults. Timeouts are in seconds.
type File struct {
	ServerName           *string             `yaml:"ServerName" json:"ServerName"`
	ServerRoot           *string             `yaml:"ServerRoot" json:"ServerRoot"`
	DocumentRoot         *string             `yaml:"DocumentRoot" json:"DocumentRoot"`
	HTTPVersion          *string             `yaml:"HTTPVersion" json:"HTTPVersion"`
	DefaultCharset       *string             `yaml:"DefaultCharset" json:"DefaultCharset"`
	DefaultType          *string             `yaml:"DefaultType" json:"DefaultType"`
	ThreadPoolSize       *int                `yaml:"ThreadPoolSize" json:"ThreadPoolSize"`
	ListenPort           *uint16             `yaml:"ListenPort" json:"ListenPort"`
	KeepAliveTimeout     *uint               `yaml:"KeepAliveTimeout" json:"KeepAliveTimeout"`
	RequestTimeout       *uint               `yaml:"RequestTimeout" json:"RequestTimeout"`
	MaxKeepAliveRequests *int                `yaml:"MaxKeepAliveRequests" json:"MaxKeepAliveRequests"`
	DirectoryIndex       []string            `yaml:"DirectoryIndex" json:"DirectoryIndex"`
	ErrorDocuments       []FileErrorDocument `yaml:"ErrorDocument" json:"ErrorDocument"`
	OutputLevel          *uint8              `yaml:"OutputLevel" json:"OutputLevel"`
	FileBufferSize       *int                `yaml:"FileBufferSize" json:"FileBufferSize"`
	MetricsPort          *uint16             `yaml:"MetricsPort" json:"MetricsPort"`
	ResolveCacheTTL      *uint               `yaml:"ResolveCacheTTL" json:"ResolveCacheTTL"`
}

type FileErrorDocument struct {
	Code uint16 `yaml:"code" json:"code"`
	Path string `yaml:"path" json:"path"`
}

// Load reads the configuration file and applies it on top of Default(). The format is
// chosen by the extension: .yaml and .yml are YAML, .json is JSON, everything else is
// treated as the flat "Key value" format.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var file File

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &file)
	case ".json":
		err = json.ConfigCompatibleWithStandardLibrary.Unmarshal(content, &file)
	default:
		file, err = ParseFlat(content)
	}

	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	cfg := Default()
	file.Apply(cfg)

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Apply overrides the fields of cfg presented in the file.
func (f File) Apply(cfg *Config) {
	setIf(&cfg.ServerName, f.ServerName)
	setIf(&cfg.HTTPVersion, f.HTTPVersion)
	setIf(&cfg.Charset, f.DefaultCharset)
	setIf(&cfg.DefaultType, f.DefaultType)
	setIf(&cfg.ThreadPoolSize, f.ThreadPoolSize)
	setIf(&cfg.ListenPort, f.ListenPort)
	setIf(&cfg.MaxKeepAliveRequests, f.MaxKeepAliveRequests)
	setIf(&cfg.FileBufferSize, f.FileBufferSize)
	setIf(&cfg.MetricsPort, f.MetricsPort)

	if f.ServerRoot != nil {
		cfg.ServerRoot = trimTrailingSep(*f.ServerRoot)
	}

	if f.DocumentRoot != nil {
		cfg.DocumentRoot = trimTrailingSep(*f.DocumentRoot)
	}

	if f.KeepAliveTimeout != nil {
		cfg.KeepAliveTimeout = seconds(*f.KeepAliveTimeout)
	}

	if f.RequestTimeout != nil {
		cfg.RequestTimeout = seconds(*f.RequestTimeout)
	}

	if f.ResolveCacheTTL != nil {
		cfg.ResolveCacheTTL = seconds(*f.ResolveCacheTTL)
	}

	if f.OutputLevel != nil {
		cfg.OutputLevel = OutputLevel(*f.OutputLevel)
	}

	if f.DirectoryIndex != nil {
		cfg.DirectoryIndex = f.DirectoryIndex
	}

	for _, doc := range f.ErrorDocuments {
		cfg.ErrorDocuments = append(cfg.ErrorDocuments, ErrorDocument{
			Code: status.Code(doc.Code),
			Path: doc.Path,
		})
	}
}

// ParseFlat parses the line-oriented format: every non-empty line not starting with #
// is a key followed by a space and the value. Unknown keys are ignored. DirectoryIndex
// holds a comma-separated list, ErrorDocument may be repeated and holds a status code
// and a path separated by whitespace.
func ParseFlat(content []byte) (f File, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineno := 0

	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)

		if err = f.setFlat(key, value); err != nil {
			return f, fmt.Errorf("line %d: %s: %w", lineno, key, err)
		}
	}

	return f, scanner.Err()
}

func (f *File) setFlat(key, value string) (err error) {
	switch key {
	case "ServerName":
		f.ServerName = &value
	case "ServerRoot":
		f.ServerRoot = &value
	case "DocumentRoot":
		f.DocumentRoot = &value
	case "HTTPVersion":
		f.HTTPVersion = &value
	case "DefaultCharset":
		f.DefaultCharset = &value
	case "DefaultType":
		f.DefaultType = &value
	case "ThreadPoolSize":
		f.ThreadPoolSize, err = parseNum[int](value, 32)
	case "ListenPort":
		f.ListenPort, err = parseNum[uint16](value, 16)
	case "KeepAliveTimeout":
		f.KeepAliveTimeout, err = parseNum[uint](value, 32)
	case "RequestTimeout":
		f.RequestTimeout, err = parseNum[uint](value, 32)
	case "MaxKeepAliveRequests":
		f.MaxKeepAliveRequests, err = parseNum[int](value, 32)
	case "OutputLevel":
		f.OutputLevel, err = parseNum[uint8](value, 8)
	case "FileBufferSize":
		f.FileBufferSize, err = parseNum[int](value, 32)
	case "MetricsPort":
		f.MetricsPort, err = parseNum[uint16](value, 16)
	case "ResolveCacheTTL":
		f.ResolveCacheTTL, err = parseNum[uint](value, 32)
	case "DirectoryIndex":
		f.DirectoryIndex = f.DirectoryIndex[:0]
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); len(name) > 0 {
				f.DirectoryIndex = append(f.DirectoryIndex, name)
			}
		}
	case "ErrorDocument":
		fields := strings.Fields(value)
		if len(fields) != 2 {
			return fmt.Errorf("want <code> <path>, got %q", value)
		}

		code, err := strconv.ParseUint(fields[0], 10, 16)
		if err != nil {
			return err
		}

		f.ErrorDocuments = append(f.ErrorDocuments, FileErrorDocument{
			Code: uint16(code),
			Path: fields[1],
		})
	}

	return err
}

type number interface {
	int | uint | uint8 | uint16
}

func parseNum[T number](value string, bitSize int) (*T, error) {
	n, err := strconv.ParseInt(value, 10, bitSize+1)
	if err != nil {
		return nil, err
	}

	if n < 0 {
		return nil, fmt.Errorf("negative value %d", n)
	}

	result := T(n)
	return &result, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func seconds(n uint) time.Duration {
	return time.Duration(n) * time.Second
}

func trimTrailingSep(path string) string {
	if len(path) > 1 {
		return strings.TrimRight(path, "/")
	}

	return path
}
