package entities

import "time"

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User is a registered account. The role is not stored; it is derived from
// the username at login time.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string    `gorm:"column:pwdigest;size:100;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Author struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"column:author_name;uniqueIndex;size:256;not null" json:"name"`
}

// Genre rows are seeded at startup; the catalogue only reads them.
type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"column:genre_name;uniqueIndex;size:100;not null" json:"name"`
}

type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"index;size:512;not null" json:"title"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Author    Author    `gorm:"foreignKey:AuthorID" json:"author"`
	GenreID   *uint     `gorm:"index" json:"genre_id"` // nil when the genre lookup missed
	Genre     *Genre    `gorm:"foreignKey:GenreID" json:"genre,omitempty"`
	Pages     int       `gorm:"not null;default:0" json:"pages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CollectionMembership records that a user added a book to their list.
// The composite primary key makes the relation a set.
type CollectionMembership struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	TitleID   uint      `gorm:"column:title_id;primaryKey;autoIncrement:false;index" json:"title_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book      *Book     `gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (Author) TableName() string {
	return "author"
}

func (Genre) TableName() string {
	return "genre"
}

func (Book) TableName() string {
	return "book"
}

func (CollectionMembership) TableName() string {
	return "user_title_rel"
}
