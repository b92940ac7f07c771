package mongodb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
)

type geoDoc struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
	Address     string    `bson:"address,omitempty"`
	Description string    `bson:"description,omitempty"`
}

type tourDoc struct {
	ID              string      `bson:"_id"`
	Name            string      `bson:"name"`
	Duration        int         `bson:"duration"`
	MaxGroupSize    int         `bson:"maxGroupSize"`
	Difficulty      string      `bson:"difficulty"`
	RatingsAverage  float64     `bson:"ratingsAverage"`
	RatingsQuantity int         `bson:"ratingsQuantity"`
	Price           float64     `bson:"price"`
	PriceDiscount   *float64    `bson:"priceDiscount,omitempty"`
	Summary         string      `bson:"summary"`
	Description     string      `bson:"description"`
	ImageCover      string      `bson:"imageCover"`
	Images          []string    `bson:"images"`
	StartDates      []time.Time `bson:"startDates"`
	StartLocation   *geoDoc     `bson:"startLocation,omitempty"`
	Guides          []string    `bson:"guides"`
	CreatedAt       time.Time   `bson:"createdAt"`
}

type userDoc struct {
	ID                   string     `bson:"_id"`
	Name                 string     `bson:"name"`
	Email                string     `bson:"email"`
	Photo                string     `bson:"photo"`
	Role                 string     `bson:"role"`
	HashedPassword       string     `bson:"password"`
	PasswordChangedAt    *time.Time `bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string     `bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time `bson:"passwordResetExpires,omitempty"`
	Active               bool       `bson:"active"`
	CreatedAt            time.Time  `bson:"createdAt"`
}

type reviewDoc struct {
	ID        string    `bson:"_id"`
	Review    string    `bson:"review"`
	Rating    int       `bson:"rating"`
	TourID    string    `bson:"tour"`
	UserID    string    `bson:"user"`
	CreatedAt time.Time `bson:"createdAt"`
}

func fromGeoPoint(p *domain.GeoPoint) *geoDoc {
	if p == nil {
		return nil
	}
	return &geoDoc{
		Type:        domain.GeoPointType,
		Coordinates: []float64{p.Coordinates[0], p.Coordinates[1]},
		Address:     p.Address,
		Description: p.Description,
	}
}

func (g *geoDoc) toDomain() (*domain.GeoPoint, error) {
	if g == nil {
		return nil, nil
	}
	if len(g.Coordinates) != 2 {
		return nil, fmt.Errorf("malformed coordinates: %v", g.Coordinates)
	}
	return &domain.GeoPoint{
		Type:        g.Type,
		Coordinates: [2]float64{g.Coordinates[0], g.Coordinates[1]},
		Address:     g.Address,
		Description: g.Description,
	}, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("malformed id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func fromTour(t *domain.Tour) tourDoc {
	images := t.Images
	if images == nil {
		images = []string{}
	}
	dates := make([]time.Time, len(t.StartDates))
	for i, d := range t.StartDates {
		dates[i] = d.UTC()
	}
	return tourDoc{
		ID:              t.ID.String(),
		Name:            t.Name,
		Duration:        t.Duration,
		MaxGroupSize:    t.MaxGroupSize,
		Difficulty:      string(t.Difficulty),
		RatingsAverage:  t.RatingsAverage,
		RatingsQuantity: t.RatingsQuantity,
		Price:           t.Price,
		PriceDiscount:   t.PriceDiscount,
		Summary:         t.Summary,
		Description:     t.Description,
		ImageCover:      t.ImageCover,
		Images:          images,
		StartDates:      dates,
		StartLocation:   fromGeoPoint(t.StartLocation),
		Guides:          idStrings(t.Guides),
		CreatedAt:       t.CreatedAt.UTC(),
	}
}

func (d *tourDoc) toDomain() (*domain.Tour, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("malformed tour id %q: %w", d.ID, err)
	}
	guides, err := parseIDs(d.Guides)
	if err != nil {
		return nil, err
	}
	loc, err := d.StartLocation.toDomain()
	if err != nil {
		return nil, err
	}
	t := &domain.Tour{
		ID:              id,
		Name:            d.Name,
		Duration:        d.Duration,
		MaxGroupSize:    d.MaxGroupSize,
		Difficulty:      domain.Difficulty(d.Difficulty),
		RatingsAverage:  d.RatingsAverage,
		RatingsQuantity: d.RatingsQuantity,
		Price:           d.Price,
		PriceDiscount:   d.PriceDiscount,
		Summary:         d.Summary,
		Description:     d.Description,
		ImageCover:      d.ImageCover,
		Images:          d.Images,
		StartDates:      d.StartDates,
		StartLocation:   loc,
		Guides:          guides,
		CreatedAt:       d.CreatedAt,
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	return t, nil
}

func fromUser(u *domain.User) userDoc {
	return userDoc{
		ID:                   u.ID.String(),
		Name:                 u.Name,
		Email:                u.Email,
		Photo:                u.Photo,
		Role:                 string(u.Role),
		HashedPassword:       u.HashedPassword,
		PasswordChangedAt:    u.PasswordChangedAt,
		PasswordResetToken:   u.PasswordResetToken,
		PasswordResetExpires: u.PasswordResetExpires,
		Active:               u.Active,
		CreatedAt:            u.CreatedAt.UTC(),
	}
}

func (d *userDoc) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("malformed user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:                   id,
		Name:                 d.Name,
		Email:                d.Email,
		Photo:                d.Photo,
		Role:                 domain.Role(d.Role),
		HashedPassword:       d.HashedPassword,
		PasswordChangedAt:    d.PasswordChangedAt,
		PasswordResetToken:   d.PasswordResetToken,
		PasswordResetExpires: d.PasswordResetExpires,
		Active:               d.Active,
		CreatedAt:            d.CreatedAt,
	}, nil
}

func (d *userDoc) summary() (domain.UserSummary, error) {
	u, err := d.toDomain()
	if err != nil {
		return domain.UserSummary{}, err
	}
	return u.Summary(), nil
}

func fromReview(r *domain.Review) reviewDoc {
	return reviewDoc{
		ID:        r.ID.String(),
		Review:    r.Review,
		Rating:    r.Rating,
		TourID:    r.TourID.String(),
		UserID:    r.UserID.String(),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (d *reviewDoc) toDomain() (*domain.Review, error) {
	ids, err := parseIDs([]string{d.ID, d.TourID, d.UserID})
	if err != nil {
		return nil, err
	}
	return &domain.Review{
		ID:        ids[0],
		Review:    d.Review,
		Rating:    d.Rating,
		TourID:    ids[1],
		UserID:    ids[2],
		CreatedAt: d.CreatedAt,
	}, nil
}
