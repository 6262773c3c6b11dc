package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/icco/skirmish"
	"github.com/ifo/sanic"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"moul.io/zapgorm2"
)

var slugWorker = sanic.NewWorker7()

var errArchiveDisabled = errors.New("match archive is not configured")

// openDB connects to dbURL, which is either a postgres URL or
// "sqlite:<path>", and migrates the schema.
func openDB(dbURL string) (*gorm.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	gormLogger := zapgorm2.New(log.Desugar())
	gormLogger.IgnoreRecordNotFoundError = true
	gormLogger.SetAsDefault()

	var dialector gorm.Dialector
	if path, ok := strings.CutPrefix(dbURL, "sqlite:"); ok {
		dialector = sqlite.Open(path)
	} else {
		dialector = postgres.Open(dbURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	// Auto-migrate the schema
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run auto-migration: %w", err)
	}

	return db, nil
}

func createMatch(db *gorm.DB, cfg skirmish.Config) (*Match, error) {
	worker := slugWorker
	match := &Match{
		Slug:   worker.IDString(worker.NextID()),
		Status: statusActive,
	}

	if err := db.Create(match).Error; err != nil {
		return nil, err
	}

	if err := updateTag(db, match.ID, skirmish.TagSize, strconv.Itoa(cfg.Size)); err != nil {
		return nil, err
	}
	if err := updateTag(db, match.ID, skirmish.TagHomeRow, cfg.HomeRowText()); err != nil {
		return nil, err
	}

	return match, nil
}

func updateTag(db *gorm.DB, matchID int64, key, value string) error {
	var tag Tag
	err := db.Where("match_id = ? AND key = ?", matchID, key).First(&tag).Error
	if err == nil {
		return db.Model(&tag).Update("value", value).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.Create(&Tag{MatchID: matchID, Key: key, Value: value}).Error
}

func insertMove(db *gorm.DB, matchID int64, res *skirmish.Result) error {
	move := Move{
		MatchID: matchID,
		Number:  res.Number,
		Player:  res.Player.String(),
		Square:  res.From.String(),
		Command: res.Command.Text,
	}
	if res.Combat.Captured {
		move.Captured = res.Combat.CapturedPiece.Name()
	}

	return db.Create(&move).Error
}

// updateMatchStatus updates the match status in the database
func updateMatchStatus(db *gorm.DB, matchID int64, status string, winner skirmish.Player) error {
	result := db.Model(&Match{}).Where("id = ?", matchID).Updates(Match{
		Status: status,
		Winner: winner.String(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func getMatch(db *gorm.DB, slug string) (*Match, error) {
	var match Match
	err := db.Where("slug = ?", slug).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Moves", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// getTranscript rebuilds the transcript of a stored match.
func getTranscript(db *gorm.DB, slug string) (*skirmish.Transcript, error) {
	match, err := getMatch(db, slug)
	if err != nil {
		return nil, err
	}

	tr := &skirmish.Transcript{}
	tr.UpdateMeta(skirmish.TagMatch, match.Slug)
	for _, tag := range match.Tags {
		tr.UpdateMeta(tag.Key, tag.Value)
	}

	for _, mv := range match.Moves {
		player, err := skirmish.ParsePlayer(mv.Player)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", mv.Number, err)
		}
		from, err := skirmish.ParsePosition(mv.Square)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", mv.Number, err)
		}
		cmd, err := skirmish.NewCommand(mv.Command)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", mv.Number, err)
		}

		turn := &skirmish.Turn{Number: mv.Number, Player: player, From: from, Command: cmd}
		if mv.Captured != "" {
			turn.Comment = "captures " + mv.Captured
		}
		tr.Turns = append(tr.Turns, turn)
	}

	return tr, nil
}

// Archive records the match being played. A nil Archive records nothing.
// Its write methods are only called from the hub's run loop.
type Archive struct {
	db    *gorm.DB
	match *Match
}

// NewArchive wraps an open database.
func NewArchive(db *gorm.DB) *Archive {
	return &Archive{db: db}
}

// Slug returns the slug of the match being recorded.
func (a *Archive) Slug() string {
	if a == nil || a.match == nil {
		return ""
	}
	return a.match.Slug
}

// StartMatch opens a new match row. A match still active at that point was
// reset before it finished and is marked abandoned.
func (a *Archive) StartMatch(cfg skirmish.Config) error {
	if a == nil {
		return nil
	}

	if a.match != nil && a.match.Status == statusActive {
		if err := updateMatchStatus(a.db, a.match.ID, statusAbandon, skirmish.NoPlayer); err != nil {
			log.Warnw("could not abandon match", "slug", a.match.Slug, zap.Error(err))
		}
	}

	match, err := createMatch(a.db, cfg)
	if err != nil {
		a.match = nil
		return err
	}
	a.match = match
	log.Infow("match started", "slug", match.Slug)
	return nil
}

// RecordMove stores an applied move.
func (a *Archive) RecordMove(res *skirmish.Result) error {
	if a == nil || a.match == nil {
		return nil
	}
	return insertMove(a.db, a.match.ID, res)
}

// FinishMatch stores the result of the match.
func (a *Archive) FinishMatch(winner skirmish.Player) error {
	if a == nil || a.match == nil {
		return nil
	}

	if err := updateMatchStatus(a.db, a.match.ID, statusFinished, winner); err != nil {
		return err
	}
	a.match.Status = statusFinished
	return updateTag(a.db, a.match.ID, skirmish.TagResult, winner.String())
}

// Transcript loads the transcript of any stored match.
func (a *Archive) Transcript(slug string) (*skirmish.Transcript, error) {
	if a == nil {
		return nil, errArchiveDisabled
	}
	return getTranscript(a.db, slug)
}

// Match loads any stored match with its tags and moves.
func (a *Archive) Match(slug string) (*Match, error) {
	if a == nil {
		return nil, errArchiveDisabled
	}
	return getMatch(a.db, slug)
}
