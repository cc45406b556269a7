// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The oauth_states collection manages its own indexes (it needs a TTL
index tied to the store's document layout), so it is not listed here.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureCategories(ctx, db); err != nil {
		problems = append(problems, "categories: "+err.Error())
	}
	if err := ensureIndicators(ctx, db); err != nil {
		problems = append(problems, "indicators: "+err.Error())
	}
	if err := ensureNotifications(ctx, db); err != nil {
		problems = append(problems, "notifications: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		// 1) Load existing indexes
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			defer cur.Close(ctx)
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
		}

		if ex, ok := existing[desiredSig]; ok {
			// Same key pattern exists already.
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Name alignment: if the name differs, drop & recreate with the desired name.
				if desiredName != "" && ex.Name != desiredName {
					zap.L().Info("renaming index to align with desired name",
						zap.String("collection", coll.Name()),
						zap.String("from", ex.Name),
						zap.String("to", desiredName),
						zap.String("keys", desiredSig))

					if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename drop failed: %v", coll.Name(), desiredName, err))
						continue
					}
					if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename create failed: %v", coll.Name(), desiredName, err))
						continue
					}
					zap.L().Info("index renamed",
						zap.String("collection", coll.Name()),
						zap.String("name", desiredName),
						zap.String("keys", desiredSig),
						zap.String("took", time.Since(start).String()))
					continue
				}

				// Names aligned (or we don't care) → reuse
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Bool("unique", ex.Unique != nil && *ex.Unique),
					zap.String("took", time.Since(start).String()))
				continue
			}

			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				errs = append(errs, describeCreateErr(coll, desiredName, desiredSig, desiredUnique, err))
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// 2) No existing index with the same keys: create it.
		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isOptionsConflictErr(err) {
				if handled := recoverOptionsConflict(ctx, coll, m, desiredSig, desiredName, desiredUnique, start, &errs); handled {
					continue
				}
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("created_name", created),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// recoverOptionsConflict handles IndexOptionsConflict by finding the index
// with the same keys, reusing it when compatible and rebuilding it when not.
// Returns true when the conflict was resolved (or recorded in errs).
func recoverOptionsConflict(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, desiredSig, desiredName string, desiredUnique *bool, start time.Time, errs *[]string) bool {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return false
	}
	var match *existingIndex
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if keySig(idx.Key) == desiredSig {
			match = &idx
			break
		}
	}
	cur.Close(ctx)
	if match == nil {
		return false
	}

	if sameBoolPtr(desiredUnique, match.Unique) {
		zap.L().Info("reusing existing index (post-conflict)",
			zap.String("collection", coll.Name()),
			zap.String("name", match.Name),
			zap.String("keys", desiredSig),
			zap.String("took", time.Since(start).String()))
		return true
	}

	if _, dropErr := coll.Indexes().DropOne(ctx, match.Name); dropErr != nil {
		zap.L().Warn("failed to drop conflicting index",
			zap.String("collection", coll.Name()),
			zap.String("name", match.Name),
			zap.Error(dropErr))
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		*errs = append(*errs, describeCreateErr(coll, desiredName, desiredSig, desiredUnique, err))
		return true
	}
	zap.L().Info("index dropped and recreated (post-conflict)",
		zap.String("collection", coll.Name()),
		zap.String("name", desiredName),
		zap.String("keys", desiredSig),
		zap.String("took", time.Since(start).String()))
	return true
}

func describeCreateErr(coll *mongo.Collection, desiredName, desiredSig string, desiredUnique *bool, err error) string {
	if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
		helper := ""
		if coll.Name() == "users" && strings.Contains(desiredSig, "email:1") {
			helper = " — duplicates exist on users.email. Example finder:\n" +
				`db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
		}
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s", coll.Name(), desiredName, helper)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err)
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email is the login identifier and must be unique.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},

		// Role listings (assignee pickers, admin fan-out for notifications).
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "full_name", Value: 1}},
			Options: options.Index().SetName("idx_users_role_name"),
		},
	})
}

func ensureCategories(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("categories")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Sibling names must be unique under one parent (case/diacritics
		// folded). Top-level nodes share the null parent bucket.
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_categories_parent_nameci"),
		},

		// Level listings sorted by folded name.
		{
			Keys:    bson.D{{Key: "level", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_categories_level_nameci"),
		},
	})
}

func ensureIndicators(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("indicators")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Overdue sweep: pending/submitted indicators past their due date.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}},
			Options: options.Index().SetName("idx_indicators_status_due"),
		},

		// Category browsing, newest first.
		{
			Keys:    bson.D{{Key: "category_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_indicators_category_created"),
		},
		{
			Keys:    bson.D{{Key: "level2_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_indicators_level2_created"),
		},

		// Assignee views match either individual or group assignment.
		{
			Keys:    bson.D{{Key: "assigned_to", Value: 1}},
			Options: options.Index().SetName("idx_indicators_assigned_to"),
		},
		{
			Keys:    bson.D{{Key: "assigned_group", Value: 1}},
			Options: options.Index().SetName("idx_indicators_assigned_group"),
		},

		// Default list sort.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_indicators_created"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("notifications")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Per-user inbox, newest first.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_user_created"),
		},

		// Unread badge counts.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}},
			Options: options.Index().SetName("idx_notifications_user_read"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Recent activity feeds.
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},

		// Per-indicator history.
		{
			Keys:    bson.D{{Key: "indicator_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_indicator_ts"),
		},

		// Per-subject and per-actor views.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_ts"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_ts"),
		},

		// Category reports (failed logins, lifecycle event filters).
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_ts"),
		},
	})
}
