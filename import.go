package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"foodgramApi/models"
	"github.com/bytedance/sonic"
	"gorm.io/gorm/clause"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const importBatchSize = 500

var ErrUnknownImportFormat = errors.New("unknown import format, expected .json or .csv")

func openImport(path string) (*os.File, string, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	if format != "json" && format != "csv" {
		return nil, "", ErrUnknownImportFormat
	}

	f, err := os.Open(path)

	if err != nil {
		return nil, "", err
	}

	return f, format, nil
}

// readCsv returns every record; rows must have exactly fields columns.
func readCsv(r io.Reader, fields int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = fields
	reader.TrimLeadingSpace = true

	return reader.ReadAll()
}

// ReadIngredients parses ingredients from a JSON array of
// {name, measurement_unit} objects or a name,unit CSV.
func ReadIngredients(r io.Reader, format string) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient

	switch format {
	case "json":
		data, err := io.ReadAll(r)

		if err != nil {
			return nil, err
		}

		if err := sonic.Unmarshal(data, &ingredients); err != nil {
			return nil, fmt.Errorf("failed to decode ingredients: %w", err)
		}
	case "csv":
		records, err := readCsv(r, 2)

		if err != nil {
			return nil, fmt.Errorf("failed to read ingredients: %w", err)
		}

		for _, record := range records {
			ingredients = append(ingredients, models.Ingredient{Name: record[0], MeasurementUnit: record[1]})
		}
	default:
		return nil, ErrUnknownImportFormat
	}

	for i := range ingredients {
		ingredients[i].ID = 0

		if ingredients[i].Name == "" || ingredients[i].MeasurementUnit == "" {
			return nil, fmt.Errorf("ingredient %d is missing a name or measurement unit", i+1)
		}
	}

	return ingredients, nil
}

// ReadTags parses tags from a JSON array of {name, color, slug} objects or a
// name,color,slug CSV.
func ReadTags(r io.Reader, format string) ([]models.Tag, error) {
	var tags []models.Tag

	switch format {
	case "json":
		data, err := io.ReadAll(r)

		if err != nil {
			return nil, err
		}

		if err := sonic.Unmarshal(data, &tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	case "csv":
		records, err := readCsv(r, 3)

		if err != nil {
			return nil, fmt.Errorf("failed to read tags: %w", err)
		}

		for _, record := range records {
			tags = append(tags, models.Tag{Name: record[0], Color: record[1], Slug: record[2]})
		}
	default:
		return nil, ErrUnknownImportFormat
	}

	for i := range tags {
		tags[i].ID = 0
		tags[i].Color = strings.ToUpper(tags[i].Color)

		if err := Validate.Var(tags[i].Color, "hexcolor,len=7"); err != nil {
			return nil, fmt.Errorf("tag %q has an invalid color %q", tags[i].Name, tags[i].Color)
		}

		if !SlugRegex.MatchString(tags[i].Slug) {
			return nil, fmt.Errorf("tag %q has an invalid slug %q", tags[i].Name, tags[i].Slug)
		}
	}

	return tags, nil
}

// ImportIngredients inserts ingredients, skipping ones that already exist, and
// returns how many rows were added.
func ImportIngredients(ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}

	tx := DatabaseConnection.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, importBatchSize)

	if tx.Error != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", tx.Error)
	}

	if SearchEnabled() && tx.RowsAffected > 0 {
		if err := indexAllIngredients(nil); err != nil {
			return tx.RowsAffected, fmt.Errorf("failed to index imported ingredients: %w", err)
		}
	}

	return tx.RowsAffected, nil
}

func ImportTags(tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}

	tx := DatabaseConnection.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&tags, importBatchSize)

	if tx.Error != nil {
		return 0, fmt.Errorf("failed to import tags: %w", tx.Error)
	}

	return tx.RowsAffected, nil
}

// ImportFile loads kind ("ingredients" or "tags") from path into the database.
func ImportFile(kind string, path string) (int64, error) {
	f, format, err := openImport(path)

	if err != nil {
		return 0, err
	}

	defer f.Close()

	switch kind {
	case "ingredients":
		ingredients, err := ReadIngredients(f, format)

		if err != nil {
			return 0, err
		}

		return ImportIngredients(ingredients)
	case "tags":
		tags, err := ReadTags(f, format)

		if err != nil {
			return 0, err
		}

		return ImportTags(tags)
	}

	return 0, fmt.Errorf("unknown import kind %q", kind)
}
