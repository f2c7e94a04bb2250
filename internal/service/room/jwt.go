package room

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
}

func (s *service) generateJWT(userID, roomID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"room_id": roomID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.config.Secret))
}

func (s *service) ParseJWT(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token")
	}

	userID, _ := claims["user_id"].(string)
	roomID, _ := claims["room_id"].(string)
	if userID == "" || roomID == "" {
		return nil, errors.New("invalid token")
	}

	return &Claims{
		UserID: userID,
		RoomID: roomID,
	}, nil
}
