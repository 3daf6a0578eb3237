/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package loader reads the users and companies datasets from disk.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"token-topup-go/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

var (
	ErrReadFile  = errors.New("error reading file")
	ErrParseFile = errors.New("error parsing file")
)

const (
	formatJSON = "JSON"
	formatYAML = "YAML"
)

// Dataset is the parsed input of one run
type Dataset struct {
	Users     []models.User
	Companies []models.Company
}

// Load reads users and companies, in that order. The first failure aborts the load.
func Load(ctx context.Context, usersFile, companiesFile string) (*Dataset, error) {
	var users []models.User
	if err := decodeFile(ctx, usersFile, &users); err != nil {
		return nil, err
	}

	var companies []models.Company
	if err := decodeFile(ctx, companiesFile, &companies); err != nil {
		return nil, err
	}

	zap.L().Info("Datasets loaded",
		zap.String("users_file", usersFile),
		zap.Int("users", len(users)),
		zap.String("companies_file", companiesFile),
		zap.Int("companies", len(companies)))

	return &Dataset{Users: users, Companies: companies}, nil
}

func decodeFile(ctx context.Context, file string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := resolvePath(file)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadFile, file, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		zap.L().Error("Failed to read dataset", zap.String("file", path), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrReadFile, file, err)
	}

	format := formatFor(path)
	switch format {
	case formatYAML:
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		zap.L().Error("Failed to parse dataset",
			zap.String("file", path),
			zap.String("format", format),
			zap.Error(err))
		return fmt.Errorf("%w: %s in %s: %w", ErrParseFile, format, file, err)
	}

	zap.L().Debug("Decoded dataset", zap.String("file", path), zap.String("format", format))
	return nil
}

// formatFor picks the decoder from the file extension; anything that is not YAML is read as JSON.
func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

func resolvePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(wd, file), nil
}
