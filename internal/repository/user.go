package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/axokaze/kaze-api/internal/model"
)

// UserRepository defines the interface for account-related database
// operations. Methods whose filter asserts account state (ConsumeLoginOTP,
// RecordOTPMismatch, RotateRefreshToken) are atomic read-modify-write
// transitions: they return ErrNotFound when the asserted state no longer
// holds, never a partial update.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)

	// SetLoginOTP installs or replaces the pending login OTP.
	SetLoginOTP(ctx context.Context, id string, otp model.LoginOTP) error

	// ConsumeLoginOTP clears the pending OTP and marks the account verified
	// iff the stored code matches, the attempt ceiling has not been reached
	// and the code has not expired. Returns ErrNotFound otherwise.
	ConsumeLoginOTP(ctx context.Context, id, code string, now time.Time) (*model.User, error)

	// RecordOTPMismatch increments the pending OTP attempt counter and
	// returns the new count. Returns ErrNotFound if there is no pending OTP
	// or the counter is already at the ceiling.
	RecordOTPMismatch(ctx context.Context, id string) (int, error)

	// ClearExpiredLoginOTP drops the pending OTP iff its expiry has passed
	// at now. A live OTP, including one installed concurrently, is left
	// alone; having nothing to drop is not an error.
	ClearExpiredLoginOTP(ctx context.Context, id string, now time.Time) error

	// SetRefreshToken overwrites the active refresh token.
	SetRefreshToken(ctx context.Context, id string, token model.RefreshToken) error

	// RotateRefreshToken replaces the active refresh token iff the stored
	// value equals presented and the stored expiry is still in the future.
	// Returns ErrNotFound otherwise, so two concurrent rotations of the
	// same token cannot both succeed.
	RotateRefreshToken(ctx context.Context, id, presented string, now time.Time, next model.RefreshToken) (*model.User, error)

	// ClearRefreshToken removes the active refresh token. Clearing an
	// account that has none, or an unknown id, is not an error.
	ClearRefreshToken(ctx context.Context, id string) error

	// SetPasswordReset installs or replaces the pending password reset.
	SetPasswordReset(ctx context.Context, id string, reset model.PasswordReset) error

	// GetUserByResetToken finds the account holding the given unexpired
	// reset token.
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)

	// ClearExpiredPasswordReset drops the pending reset holding the given
	// token iff its expiry has passed at now. A live or already-replaced
	// reset is left alone; having nothing to drop is not an error.
	ClearExpiredPasswordReset(ctx context.Context, token string, now time.Time) error

	// ResetPassword stores the new password hash and clears both the
	// pending reset and the active refresh token in one update.
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

// UpdateUserParams defines the optional parameters for updating an account.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "password_reset.token", Value: 1}},
			Options: options.Index().
				SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	// Build update query
	updateMap := bson.M{}
	if params.Name != nil {
		updateMap["name"] = *params.Name
	}
	if params.Email != nil {
		updateMap["email"] = *params.Email
	}
	if params.PasswordHash != nil {
		updateMap["password_hash"] = *params.PasswordHash
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no user fields to update")
	}

	updateMap["updated_at"] = time.Now()

	return r.findOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": updateMap})
}

func (r *userMongoRepository) SetLoginOTP(ctx context.Context, id string, otp model.LoginOTP) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"login_otp":  otp,
			"updated_at": time.Now(),
		},
	})
}

func (r *userMongoRepository) ConsumeLoginOTP(
	ctx context.Context,
	id, code string,
	now time.Time,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{
		"_id":                  objectID,
		"login_otp.code":       code,
		"login_otp.attempts":   bson.M{"$lt": model.MaxLoginOTPAttempts},
		"login_otp.expires_at": bson.M{"$gt": now},
	}
	update := bson.M{
		"$unset": bson.M{"login_otp": ""},
		"$set": bson.M{
			"verified":   true,
			"updated_at": now,
		},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *userMongoRepository) RecordOTPMismatch(ctx context.Context, id string) (int, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, ErrNotFound
	}

	filter := bson.M{
		"_id":                objectID,
		"login_otp":          bson.M{"$exists": true},
		"login_otp.attempts": bson.M{"$lt": model.MaxLoginOTPAttempts},
	}
	update := bson.M{
		"$inc": bson.M{"login_otp.attempts": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	user, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	if user.LoginOTP == nil {
		return 0, ErrNotFound
	}

	return user.LoginOTP.Attempts, nil
}

func (r *userMongoRepository) ClearExpiredLoginOTP(ctx context.Context, id string, now time.Time) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	// The expiry guard in the filter keeps a concurrently installed live
	// OTP out of reach.
	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{
			"_id":                  objectID,
			"login_otp.expires_at": bson.M{"$lte": now},
		},
		bson.M{
			"$unset": bson.M{"login_otp": ""},
			"$set":   bson.M{"updated_at": now},
		},
	)
	return err
}

func (r *userMongoRepository) SetRefreshToken(ctx context.Context, id string, token model.RefreshToken) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"refresh_token": token,
			"updated_at":    time.Now(),
		},
	})
}

func (r *userMongoRepository) RotateRefreshToken(
	ctx context.Context,
	id, presented string,
	now time.Time,
	next model.RefreshToken,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{
		"_id":                      objectID,
		"refresh_token.value":      presented,
		"refresh_token.expires_at": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"refresh_token": next,
			"updated_at":    now,
		},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *userMongoRepository) ClearRefreshToken(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// Best-effort: an unknown account has nothing to clear.
		return nil
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$unset": bson.M{"refresh_token": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *userMongoRepository) SetPasswordReset(ctx context.Context, id string, reset model.PasswordReset) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"password_reset": reset,
			"updated_at":     time.Now(),
		},
	})
}

func (r *userMongoRepository) GetUserByResetToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.User, error) {
	return r.findOne(ctx, bson.M{
		"password_reset.token":      token,
		"password_reset.expires_at": bson.M{"$gt": now},
	})
}

func (r *userMongoRepository) ClearExpiredPasswordReset(ctx context.Context, token string, now time.Time) error {
	_, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{
			"password_reset.token":      token,
			"password_reset.expires_at": bson.M{"$lte": now},
		},
		bson.M{
			"$unset": bson.M{"password_reset": ""},
			"$set":   bson.M{"updated_at": now},
		},
	)
	return err
}

func (r *userMongoRepository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		},
		"$unset": bson.M{
			"password_reset": "",
			"refresh_token":  "",
		},
	})
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.db.Collection(userCollection).UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}
