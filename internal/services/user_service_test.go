package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arzan03/medistore/internal/db"
	"github.com/arzan03/medistore/internal/mocks"
	"github.com/arzan03/medistore/internal/models"
	"github.com/arzan03/medistore/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
		Address:  "221B Baker Street",
		Phone:    "+14155552671",
	}
}

func TestUserService_RegisterUser(t *testing.T) {
	tests := []struct {
		name      string
		req       func() models.RegisterRequest
		mockSetup func(users *mocks.MockUserStore)
		wantCode  int
		wantRole  string
	}{
		{
			name: "username too short",
			req: func() models.RegisterRequest {
				r := validRegistration()
				r.Username = "bob"
				return r
			},
			mockSetup: func(*mocks.MockUserStore) {},
			wantCode:  fiber.StatusBadRequest,
		},
		{
			name: "username taken",
			req:  validRegistration,
			mockSetup: func(users *mocks.MockUserStore) {
				users.EXPECT().ExistsByField(gomock.Any(), "username", "alice").Return(true, nil)
			},
			wantCode: fiber.StatusBadRequest,
		},
		{
			name: "email taken",
			req:  validRegistration,
			mockSetup: func(users *mocks.MockUserStore) {
				users.EXPECT().ExistsByField(gomock.Any(), "username", gomock.Any()).Return(false, nil)
				users.EXPECT().ExistsByField(gomock.Any(), "email", "alice@example.com").Return(true, nil)
			},
			wantCode: fiber.StatusConflict,
		},
		{
			name: "invalid phone",
			req: func() models.RegisterRequest {
				r := validRegistration()
				r.Phone = "12ab"
				return r
			},
			mockSetup: func(users *mocks.MockUserStore) {
				users.EXPECT().ExistsByField(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(2)
			},
			wantCode: fiber.StatusBadRequest,
		},
		{
			name: "phone taken",
			req:  validRegistration,
			mockSetup: func(users *mocks.MockUserStore) {
				users.EXPECT().ExistsByField(gomock.Any(), "username", gomock.Any()).Return(false, nil)
				users.EXPECT().ExistsByField(gomock.Any(), "email", gomock.Any()).Return(false, nil)
				users.EXPECT().ExistsByField(gomock.Any(), "phone", "+14155552671").Return(true, nil)
			},
			wantCode: fiber.StatusConflict,
		},
		{
			name: "concurrent duplicate on insert",
			req:  validRegistration,
			mockSetup: func(users *mocks.MockUserStore) {
				users.EXPECT().ExistsByField(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(3)
				users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(db.ErrDuplicate)
			},
			wantCode: fiber.StatusConflict,
		},
		{
			name: "regular user",
			req:  validRegistration,
			mockSetup: func(users *mocks.MockUserStore) {
				users.EXPECT().ExistsByField(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(3)
				users.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *models.User) error {
						if u.Password == "secret123" || !services.VerifyPassword("secret123", u.Password) {
							t.Error("password was not hashed")
						}
						if u.Avatar != models.DefaultAvatar {
							t.Errorf("avatar = %q, want default", u.Avatar)
						}
						return nil
					})
			},
			wantRole: models.RoleUser,
		},
		{
			name: "allow-listed email becomes admin",
			req: func() models.RegisterRequest {
				r := validRegistration()
				r.Email = "Root@Example.com"
				return r
			},
			mockSetup: func(users *mocks.MockUserStore) {
				users.EXPECT().ExistsByField(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(3)
				users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantRole: models.RoleAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			users := mocks.NewMockUserStore(ctrl)
			tt.mockSetup(users)

			tokens := services.NewTokenService("test-secret", time.Hour)
			svc := services.NewUserService(users, mocks.NewMockImageStore(ctrl), tokens, []string{"root@example.com"}, zerolog.Nop())

			role, err := svc.RegisterUser(context.Background(), tt.req())
			if tt.wantCode != 0 {
				if errCode(err) != tt.wantCode {
					t.Fatalf("got %v, want %d", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("RegisterUser: %v", err)
			}
			if role != tt.wantRole {
				t.Errorf("role = %q, want %q", role, tt.wantRole)
			}
		})
	}
}

func TestUserService_LoginUser(t *testing.T) {
	hash, err := services.HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	stored := func() *models.User {
		return &models.User{ID: primitive.NewObjectID(), Username: "alice", Password: hash, Role: models.RoleUser}
	}

	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserStore(ctrl)
	tokens := services.NewTokenService("test-secret", time.Hour)
	svc := services.NewUserService(users, mocks.NewMockImageStore(ctrl), tokens, nil, zerolog.Nop())

	t.Run("unknown username", func(t *testing.T) {
		users.EXPECT().FindByUsername(gomock.Any(), "mallory").Return(nil, db.ErrNotFound)
		_, _, err := svc.LoginUser(context.Background(), models.SignInRequest{Username: "mallory", Password: "secret123"})
		if errCode(err) != fiber.StatusNotFound {
			t.Fatalf("got %v, want 404", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(stored(), nil)
		_, _, err := svc.LoginUser(context.Background(), models.SignInRequest{Username: "alice", Password: "wrong-one"})
		if errCode(err) != fiber.StatusBadRequest {
			t.Fatalf("got %v, want 400", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		u := stored()
		users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(u, nil)
		token, user, err := svc.LoginUser(context.Background(), models.SignInRequest{Username: "alice", Password: "secret123"})
		if err != nil {
			t.Fatalf("LoginUser: %v", err)
		}
		if user.Password != "" {
			t.Error("password hash leaked")
		}

		claims, err := tokens.ParseJWT(token)
		if err != nil {
			t.Fatalf("ParseJWT: %v", err)
		}
		if claims.UserID != u.ID.Hex() || claims.Role != models.RoleUser {
			t.Errorf("unexpected claims %+v", claims)
		}
	})
}

func TestUserService_UpdateAvatar(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserStore(ctrl)
	images := mocks.NewMockImageStore(ctrl)
	svc := services.NewUserService(users, images, services.NewTokenService("s", time.Hour), nil, zerolog.Nop())
	id := primitive.NewObjectID()

	_, err := svc.UpdateAvatar(context.Background(), id.Hex(), services.Upload{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Body:        strings.NewReader("hi"),
	})
	if errCode(err) != fiber.StatusBadRequest {
		t.Fatalf("got %v, want 400", err)
	}

	images.EXPECT().Upload(gomock.Any(), "avatars", "me.png", gomock.Any(), int64(3), "image/png").
		Return("http://localhost:9000/medistore-images/avatars/x.png", nil)
	users.EXPECT().SetAvatar(gomock.Any(), id, "http://localhost:9000/medistore-images/avatars/x.png").
		Return(&models.User{ID: id, Avatar: "http://localhost:9000/medistore-images/avatars/x.png"}, nil)

	user, err := svc.UpdateAvatar(context.Background(), id.Hex(), services.Upload{
		Filename:    "me.png",
		ContentType: "image/png",
		Size:        3,
		Body:        strings.NewReader("png"),
	})
	if err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	if !strings.HasSuffix(user.Avatar, "x.png") {
		t.Errorf("avatar = %q", user.Avatar)
	}
}

func TestUserService_GetUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserStore(ctrl)
	svc := services.NewUserService(users, nil, services.NewTokenService("s", time.Hour), nil, zerolog.Nop())

	if _, err := svc.GetUser(context.Background(), "nope"); errCode(err) != fiber.StatusBadRequest {
		t.Fatalf("got %v, want 400", err)
	}

	id := primitive.NewObjectID()
	users.EXPECT().FindByID(gomock.Any(), id).Return(nil, db.ErrNotFound)
	if _, err := svc.GetUser(context.Background(), id.Hex()); errCode(err) != fiber.StatusNotFound {
		t.Fatalf("got %v, want 404", err)
	}
}
