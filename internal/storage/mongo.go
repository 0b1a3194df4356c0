package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/model"
)

// MongoBackend is the durable document store. Ids are ObjectID hex strings; the
// uniqueness invariants live in partial indexes so concurrent writers cannot both
// pass an application-level check.
type MongoBackend struct {
	db *mongo.Database
}

func NewMongoBackend(db *mongo.Database) *MongoBackend { return &MongoBackend{db: db} }

// ConnectMongo dials the durable store. A nil client is a legal outcome for the
// caller (fallback-only mode); EnsureIndexes runs separately once a client exists.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}
	return client, nil
}

func (s *MongoBackend) EnsureIndexes(ctx context.Context) error {
	_, err := s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "users index")
	}
	_, err = s.attempts().Indexes().CreateOne(ctx, attemptIndexModel())
	if err != nil {
		return errors.Wrap(err, "attempts index")
	}
	// one submission per attempt
	_, err = s.submissions().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "attempt_id", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"attempt_id": bson.M{"$exists": true}}),
	})
	return errors.Wrap(err, "submissions index")
}

// attemptIndexModel enforces one open attempt per (exam, student). Partial indexes
// only accept equality-style filters, so the constraint keys on the stored open
// marker rather than on completed_at existence.
func attemptIndexModel() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "exam_id", Value: 1}, {Key: "student_id", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"open": true}),
	}
}

// attemptDoc is the stored shape of an attempt: the model plus the open marker the
// uniqueness index and GetOpenAttempt filter on. The marker is derived on every
// write, never set by callers.
type attemptDoc struct {
	model.Attempt `bson:",inline"`
	Open          bool `bson:"open"`
}

func newAttemptDoc(a model.Attempt) attemptDoc { return attemptDoc{Attempt: a, Open: a.Open()} }

func (s *MongoBackend) users() *mongo.Collection       { return s.db.Collection("users") }
func (s *MongoBackend) exams() *mongo.Collection       { return s.db.Collection("exams") }
func (s *MongoBackend) attempts() *mongo.Collection    { return s.db.Collection("attempts") }
func (s *MongoBackend) submissions() *mongo.Collection { return s.db.Collection("submissions") }

func (s *MongoBackend) NewID() string { return primitive.NewObjectID().Hex() }

// IsDurableID reports whether raw has the store's native 24-hex identifier shape.
func IsDurableID(raw string) bool {
	_, err := primitive.ObjectIDFromHex(raw)
	return err == nil
}

func mapMongoErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.New(apperr.NotFound, what+" not found")
	case mongo.IsDuplicateKeyError(err):
		return apperr.Wrap(apperr.Conflict, err, what+" already exists")
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return apperr.Wrap(apperr.ServiceUnavailable, err, "durable store unreachable")
	default:
		return errors.Wrap(err, what)
	}
}

func (s *MongoBackend) CreateUser(ctx context.Context, u model.User) error {
	_, err := s.users().InsertOne(ctx, u)
	return mapMongoErr(err, "user")
}

func (s *MongoBackend) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, mapMongoErr(err, "user")
}

func (s *MongoBackend) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := s.users().FindOne(ctx, bson.M{"username": username}).Decode(&u)
	return u, mapMongoErr(err, "user")
}

func (s *MongoBackend) FindAnyByRole(ctx context.Context, role string) (model.User, error) {
	var u model.User
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	err := s.users().FindOne(ctx, bson.M{"role": role}, opts).Decode(&u)
	return u, mapMongoErr(err, "user")
}

func (s *MongoBackend) UpdateUser(ctx context.Context, u model.User) error {
	res, err := s.users().ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return mapMongoErr(err, "user")
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

func (s *MongoBackend) ListUsersByTrainer(ctx context.Context, trainerID string) ([]model.User, error) {
	cur, err := s.users().Find(ctx, bson.M{"trainer_id": trainerID, "is_active": true},
		options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, mapMongoErr(err, "users")
	}
	out := []model.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapMongoErr(err, "users")
	}
	return out, nil
}

func (s *MongoBackend) PutExam(ctx context.Context, e model.Exam) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.exams().ReplaceOne(ctx, bson.M{"_id": e.ID}, e, opts)
	return mapMongoErr(err, "exam")
}

func (s *MongoBackend) GetExam(ctx context.Context, id string) (model.Exam, error) {
	var e model.Exam
	err := s.exams().FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	return e, mapMongoErr(err, "exam")
}

func (s *MongoBackend) ListPublishedExams(ctx context.Context) ([]model.Exam, error) {
	cur, err := s.exams().Find(ctx, bson.M{"is_published": true, "is_active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, mapMongoErr(err, "exams")
	}
	out := []model.Exam{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapMongoErr(err, "exams")
	}
	return out, nil
}

func (s *MongoBackend) ListExamsByTrainer(ctx context.Context, trainerID string) ([]model.Exam, error) {
	cur, err := s.exams().Find(ctx, bson.M{"trainer_id": trainerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, mapMongoErr(err, "exams")
	}
	out := []model.Exam{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapMongoErr(err, "exams")
	}
	return out, nil
}

func (s *MongoBackend) CreateAttempt(ctx context.Context, a model.Attempt) error {
	_, err := s.attempts().InsertOne(ctx, newAttemptDoc(a))
	return mapMongoErr(err, "attempt")
}

func (s *MongoBackend) GetAttempt(ctx context.Context, id string) (model.Attempt, error) {
	var a model.Attempt
	err := s.attempts().FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	return a, mapMongoErr(err, "attempt")
}

func (s *MongoBackend) GetOpenAttempt(ctx context.Context, examID, studentID string) (model.Attempt, error) {
	var a model.Attempt
	err := s.attempts().FindOne(ctx, bson.M{
		"exam_id":    examID,
		"student_id": studentID,
		"open":       true,
	}).Decode(&a)
	return a, mapMongoErr(err, "attempt")
}

func (s *MongoBackend) UpdateAttempt(ctx context.Context, a model.Attempt) error {
	res, err := s.attempts().ReplaceOne(ctx, bson.M{"_id": a.ID}, newAttemptDoc(a))
	if err != nil {
		return mapMongoErr(err, "attempt")
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "attempt not found")
	}
	return nil
}

func (s *MongoBackend) CreateSubmission(ctx context.Context, sub model.Submission) error {
	_, err := s.submissions().InsertOne(ctx, sub)
	return mapMongoErr(err, "submission")
}

func (s *MongoBackend) GetSubmission(ctx context.Context, id string) (model.Submission, error) {
	var sub model.Submission
	err := s.submissions().FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	return sub, mapMongoErr(err, "submission")
}

func (s *MongoBackend) UpdateSubmission(ctx context.Context, sub model.Submission) error {
	res, err := s.submissions().ReplaceOne(ctx, bson.M{"_id": sub.ID}, sub)
	if err != nil {
		return mapMongoErr(err, "submission")
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "submission not found")
	}
	return nil
}

func (s *MongoBackend) CountSubmissionsByStudent(ctx context.Context, studentID string) (int, error) {
	n, err := s.submissions().CountDocuments(ctx, bson.M{"student_id": studentID})
	return int(n), mapMongoErr(err, "submissions")
}

func (s *MongoBackend) ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]model.Submission, error) {
	filter := bson.M{}
	if opts.ExamID != "" {
		filter["exam_id"] = opts.ExamID
	}
	if opts.StudentID != "" {
		filter["student_id"] = opts.StudentID
	}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}
	if opts.EvaluatedBy != "" {
		filter["evaluated_by"] = opts.EvaluatedBy
	}
	fo := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		fo.SetSkip(int64(opts.Offset))
	}
	cur, err := s.submissions().Find(ctx, filter, fo)
	if err != nil {
		return nil, mapMongoErr(err, "submissions")
	}
	out := []model.Submission{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapMongoErr(err, "submissions")
	}
	return out, nil
}
