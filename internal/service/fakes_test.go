package service

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bitshare/bitshare-api/internal/domain"
)

func errNoRows() error { return sql.ErrNoRows }

type fakeUserRepo struct {
	createInput struct {
		name       string
		email      string
		hash       []byte
		salt       []byte
		profilePic *string
	}
	createResult *domain.User
	createErr    error

	upsertInput struct {
		email      string
		name       string
		profilePic *string
	}
	upsertResult *domain.User
	upsertErr    error

	findByEmailInput  string
	findByEmailResult *domain.User
	findByEmailErr    error

	findByIDInput  uuid.UUID
	findByIDResult *domain.User
	findByIDErr    error

	updatePasswordInput struct {
		id   uuid.UUID
		hash []byte
		salt []byte
	}
	updatePasswordCalls int
	updatePasswordErr   error

	updateProfilePicInput struct {
		id  uuid.UUID
		key string
	}
	updateProfilePicErr error
}

func (f *fakeUserRepo) Create(ctx context.Context, name, email string, passwordHash, passwordSalt []byte, profilePic *string) (*domain.User, error) {
	f.createInput.name = name
	f.createInput.email = email
	f.createInput.hash = append([]byte(nil), passwordHash...)
	f.createInput.salt = append([]byte(nil), passwordSalt...)
	f.createInput.profilePic = profilePic
	return f.createResult, f.createErr
}

func (f *fakeUserRepo) UpsertGoogleUser(ctx context.Context, email, name string, profilePic *string) (*domain.User, error) {
	f.upsertInput.email = email
	f.upsertInput.name = name
	f.upsertInput.profilePic = profilePic
	return f.upsertResult, f.upsertErr
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.findByEmailInput = email
	return f.findByEmailResult, f.findByEmailErr
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.findByIDInput = id
	return f.findByIDResult, f.findByIDErr
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	f.updatePasswordCalls++
	f.updatePasswordInput.id = id
	f.updatePasswordInput.hash = append([]byte(nil), passwordHash...)
	f.updatePasswordInput.salt = append([]byte(nil), passwordSalt...)
	return f.updatePasswordErr
}

func (f *fakeUserRepo) UpdateProfilePic(ctx context.Context, id uuid.UUID, key string) error {
	f.updateProfilePicInput.id = id
	f.updateProfilePicInput.key = key
	return f.updateProfilePicErr
}

type fakeVerificationRepo struct {
	replaceCalls []struct {
		email     string
		hash      []byte
		salt      []byte
		expiresAt time.Time
	}
	replaceResult *domain.Verification
	replaceErr    error

	findInput  string
	findResult *domain.Verification
	findErr    error

	deleteCalls []int64
	deleteErr   error
}

func (f *fakeVerificationRepo) Replace(ctx context.Context, email string, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.Verification, error) {
	f.replaceCalls = append(f.replaceCalls, struct {
		email     string
		hash      []byte
		salt      []byte
		expiresAt time.Time
	}{email: email, hash: append([]byte(nil), codeHash...), salt: append([]byte(nil), codeSalt...), expiresAt: expiresAt})
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	if f.replaceResult != nil {
		clone := *f.replaceResult
		return &clone, nil
	}
	return &domain.Verification{
		ID:        int64(len(f.replaceCalls)),
		Email:     email,
		CodeHash:  append([]byte(nil), codeHash...),
		CodeSalt:  append([]byte(nil), codeSalt...),
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}, nil
}

func (f *fakeVerificationRepo) FindActive(ctx context.Context, email string, now time.Time) (*domain.Verification, error) {
	f.findInput = email
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findResult == nil {
		return nil, sql.ErrNoRows
	}
	clone := *f.findResult
	return &clone, nil
}

func (f *fakeVerificationRepo) Delete(ctx context.Context, id int64) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

type fakeMailer struct {
	sentTo    []string
	sentCodes []string
	err       error
}

func (f *fakeMailer) SendOTP(ctx context.Context, email, code string) error {
	f.sentTo = append(f.sentTo, email)
	f.sentCodes = append(f.sentCodes, code)
	return f.err
}

type fakeStorage struct {
	uploaded []struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}
	uploadErr error

	presignGetInputs []string
	presignGetErr    error

	presignPutInputs []string
	presignPutErr    error
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	f.uploaded = append(f.uploaded, struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}{bucket: bucket, objectName: objectName, contentType: contentType, size: size})
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://storage/" + bucket + "/" + objectName, nil
}

func (f *fakeStorage) PresignGet(ctx context.Context, bucket, objectName string, expiry time.Duration) (string, error) {
	f.presignGetInputs = append(f.presignGetInputs, objectName)
	if f.presignGetErr != nil {
		return "", f.presignGetErr
	}
	return "https://storage/" + bucket + "/" + objectName + "?signed=get", nil
}

func (f *fakeStorage) PresignPut(ctx context.Context, bucket, objectName string, expiry time.Duration) (string, error) {
	f.presignPutInputs = append(f.presignPutInputs, objectName)
	if f.presignPutErr != nil {
		return "", f.presignPutErr
	}
	return "https://storage/" + bucket + "/" + objectName + "?signed=put", nil
}
