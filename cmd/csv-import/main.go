// Command csv-import seeds the database from a directory of CSV dumps.
// Files are loaded in dependency order and every row is get-or-create, so
// re-running the import against a populated database is safe.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	dataDir := flag.String("dir", "static/data", "directory containing the CSV files")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("could not load config", "error", err)
		os.Exit(1)
	}

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}

	imp := &importer{dir: *dataDir, logger: logger, userIDs: make(map[string]string)}

	err = db.Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			file string
			load func(*gorm.DB, [][]string) (int, error)
		}{
			{"category.csv", imp.categories},
			{"genre.csv", imp.genres},
			{"titles.csv", imp.titles},
			{"genre_title.csv", imp.titleGenres},
			{"users.csv", imp.users},
			{"review.csv", imp.reviews},
			{"comments.csv", imp.comments},
		}
		for _, step := range steps {
			rows, err := imp.readCSV(step.file)
			if err != nil {
				return err
			}
			n, err := step.load(tx, rows)
			if err != nil {
				return fmt.Errorf("%s: %w", step.file, err)
			}
			logger.Info("imported", "file", step.file, "rows", n)
		}
		return nil
	})
	if err != nil {
		logger.Error("import failed, rolled back", "error", err)
		os.Exit(1)
	}

	logger.Info("import complete")
}

type importer struct {
	dir    string
	logger *slog.Logger

	// CSV user ids mapped to the generated account ids, for review and
	// comment authorship.
	userIDs map[string]string
}

// readCSV returns the data rows of a file, header stripped. Rows are
// addressed positionally in the loaders, matching the dump layout.
func (imp *importer) readCSV(name string) ([][]string, error) {
	f, err := os.Open(filepath.Join(imp.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

// category.csv: id, name, slug
func (imp *importer) categories(tx *gorm.DB, rows [][]string) (int, error) {
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return 0, err
		}
		category := models.Category{ID: id, Name: row[1], Slug: row[2]}
		if err := tx.Where(models.Category{ID: id}).FirstOrCreate(&category).Error; err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// genre.csv: id, name, slug
func (imp *importer) genres(tx *gorm.DB, rows [][]string) (int, error) {
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return 0, err
		}
		genre := models.Genre{ID: id, Name: row[1], Slug: row[2]}
		if err := tx.Where(models.Genre{ID: id}).FirstOrCreate(&genre).Error; err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// titles.csv: id, name, year, category
func (imp *importer) titles(tx *gorm.DB, rows [][]string) (int, error) {
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return 0, err
		}
		year, err := strconv.Atoi(row[2])
		if err != nil {
			return 0, err
		}
		categoryID, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			return 0, err
		}

		title := models.Title{ID: id, Name: row[1], Year: year, CategoryID: &categoryID}
		if err := tx.Omit(clause.Associations).Where(models.Title{ID: id}).FirstOrCreate(&title).Error; err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// genre_title.csv: id, title_id, genre_id
func (imp *importer) titleGenres(tx *gorm.DB, rows [][]string) (int, error) {
	for _, row := range rows {
		if err := tx.Exec(
			"INSERT INTO title_genres (title_id, genre_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			row[1], row[2],
		).Error; err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// users.csv: id, username, email, role, bio, first_name, last_name
func (imp *importer) users(tx *gorm.DB, rows [][]string) (int, error) {
	for _, row := range rows {
		user := models.User{
			Username:  row[1],
			Email:     row[2],
			Role:      row[3],
			Bio:       row[4],
			FirstName: row[5],
			LastName:  row[6],
			IsActive:  true,
		}
		if err := tx.Where(models.User{Username: row[1]}).FirstOrCreate(&user).Error; err != nil {
			return 0, err
		}
		imp.userIDs[row[0]] = user.ID
	}
	return len(rows), nil
}

// review.csv: id, title_id, text, author, score, pub_date
func (imp *importer) reviews(tx *gorm.DB, rows [][]string) (int, error) {
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return 0, err
		}
		titleID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return 0, err
		}
		authorID, ok := imp.userIDs[row[3]]
		if !ok {
			return 0, fmt.Errorf("review %d: unknown author %s", id, row[3])
		}
		score, err := strconv.Atoi(row[4])
		if err != nil {
			return 0, err
		}
		pubDate, err := parseTimestamp(row[5])
		if err != nil {
			return 0, err
		}

		review := models.Review{
			ID:       id,
			Text:     row[2],
			AuthorID: authorID,
			TitleID:  titleID,
			Score:    score,
			PubDate:  pubDate,
		}
		if err := tx.Omit(clause.Associations).Where(models.Review{ID: id}).FirstOrCreate(&review).Error; err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// comments.csv: id, review_id, text, author, pub_date
func (imp *importer) comments(tx *gorm.DB, rows [][]string) (int, error) {
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return 0, err
		}
		reviewID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return 0, err
		}
		authorID, ok := imp.userIDs[row[3]]
		if !ok {
			return 0, fmt.Errorf("comment %d: unknown author %s", id, row[3])
		}
		pubDate, err := parseTimestamp(row[4])
		if err != nil {
			return 0, err
		}

		comment := models.Comment{
			ID:       id,
			Text:     row[2],
			AuthorID: authorID,
			ReviewID: reviewID,
			PubDate:  pubDate,
		}
		if err := tx.Omit(clause.Associations).Where(models.Comment{ID: id}).FirstOrCreate(&comment).Error; err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}
