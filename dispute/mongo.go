package dispute

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// violationDocument is the upstream violations collection layout. Only the
// fields analytics reads are decoded.
type violationDocument struct {
	ID             bson.RawValue `bson:"_id"`
	CompanyID      bson.RawValue `bson:"companyId"`
	ViolationType  string        `bson:"violationType"`
	SeverityWeight float64       `bson:"severityWeight"`
	Location       struct {
		State string `bson:"state"`
	} `bson:"location"`
	ScanResults *struct {
		PriorityScore *float64 `bson:"priorityScore"`
	} `bson:"scanResults,omitempty"`
	Challenge *struct {
		Submitted      bool       `bson:"submitted"`
		Status         string     `bson:"status"`
		SubmissionDate *time.Time `bson:"submissionDate"`
		ResponseDate   *time.Time `bson:"responseDate"`
		ChallengeType  string     `bson:"challengeType"`
	} `bson:"dataQChallenge,omitempty"`
}

// MongoStore reads dispute records straight from the upstream violations
// collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a record store reading the given collection.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// ConnectMongo dials uri and returns a store over database.collection along
// with a disconnect func.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoStore, func(context.Context) error, error) {
	if uri == "" {
		return nil, nil, fmt.Errorf("dispute: empty mongo uri")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("dispute: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("dispute: mongo ping: %w", err)
	}
	return NewMongoStore(client.Database(database).Collection(collection)), client.Disconnect, nil
}

func (s *MongoStore) Find(ctx context.Context, filter Filter) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		cur, err := s.coll.Find(ctx, mongoFilter(filter))
		if err != nil {
			yield(Record{}, fmt.Errorf("dispute: mongo find: %w", err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var doc violationDocument
			if err := cur.Decode(&doc); err != nil {
				yield(Record{}, fmt.Errorf("dispute: mongo decode: %w", err))
				return
			}
			if !yield(doc.record(), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(Record{}, fmt.Errorf("dispute: mongo iterate: %w", err))
		}
	}
}

func (d violationDocument) record() Record {
	rec := Record{
		ID:               rawID(d.ID),
		CompanyID:        rawID(d.CompanyID),
		ViolationType:    d.ViolationType,
		JurisdictionCode: d.Location.State,
		SeverityWeight:   d.SeverityWeight,
	}
	if d.ScanResults != nil {
		rec.PriorityScore = d.ScanResults.PriorityScore
	}
	if c := d.Challenge; c != nil {
		rec.Challenge = &Challenge{
			Submitted:      c.Submitted,
			Status:         Status(c.Status),
			SubmissionDate: c.SubmissionDate,
			ResponseDate:   c.ResponseDate,
			ChallengeType:  c.ChallengeType,
		}
	}
	return rec
}

func rawID(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return ""
}

func mongoFilter(f Filter) bson.D {
	filter := bson.D{}
	if f.CompanyID != "" {
		// companyId is an ObjectId upstream, but tolerate string ids.
		if oid, err := primitive.ObjectIDFromHex(f.CompanyID); err == nil {
			filter = append(filter, bson.E{Key: "companyId", Value: bson.D{{Key: "$in", Value: bson.A{oid, f.CompanyID}}}})
		} else {
			filter = append(filter, bson.E{Key: "companyId", Value: f.CompanyID})
		}
	}
	if f.SubmittedOnly {
		filter = append(filter, bson.E{Key: "dataQChallenge.submitted", Value: true})
	}
	if len(f.Statuses) > 0 {
		statuses := make(bson.A, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		filter = append(filter, bson.E{Key: "dataQChallenge.status", Value: bson.D{{Key: "$in", Value: statuses}}})
	}
	if f.HasPriorityScore {
		filter = append(filter, bson.E{Key: "scanResults.priorityScore", Value: bson.D{
			{Key: "$exists", Value: true},
			{Key: "$ne", Value: nil},
		}})
	}
	if cond := mongoRange(f.SubmissionDate); cond != nil {
		filter = append(filter, bson.E{Key: "dataQChallenge.submissionDate", Value: cond})
	}
	if cond := mongoRange(f.ResponseDate); cond != nil {
		filter = append(filter, bson.E{Key: "dataQChallenge.responseDate", Value: cond})
	}
	return filter
}

func mongoRange(r Range) bson.D {
	if r.IsZero() {
		return nil
	}
	var cond bson.D
	if !r.From.IsZero() {
		cond = append(cond, bson.E{Key: "$gte", Value: r.From})
	}
	if !r.To.IsZero() {
		cond = append(cond, bson.E{Key: "$lte", Value: r.To})
	}
	return cond
}
