package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fanctrl/fanctrl/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketFanTuning = "fanTuning"
)

// FanTuning holds the result of a measured fan behaviour run: the duty
// cycles at which the fan was actually observed to start spinning and to
// stop, plus the highest rpm seen during the sweep.
type FanTuning struct {
	MeasuredStart int       `json:"measuredStart"`
	MeasuredStop  int       `json:"measuredStop"`
	MaxRpm        int       `json:"maxRpm"`
	MeasuredAt    time.Time `json:"measuredAt"`
}

type Persistence interface {
	Init() error

	LoadFanTuning(fanId string) (*FanTuning, error)
	SaveFanTuning(fanId string, tuning FanTuning) (err error)
	DeleteFanTuning(fanId string) (err error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveFanTuning saves the measured behaviour of the given fan to persistence
func (p persistence) SaveFanTuning(fanId string, tuning FanTuning) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(tuning)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketFanTuning))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		err = b.Put([]byte(fanId), data)
		return err
	})
}

// LoadFanTuning loads the measured behaviour of the given fan from persistence
func (p persistence) LoadFanTuning(fanId string) (*FanTuning, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var tuning *FanTuning
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketFanTuning))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(fanId))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &tuning)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved tuning data for %s: %v", fanId, err)
			err := b.Delete([]byte(fanId))
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", fanId, err)
			}
			return nil
		}

		return err
	})

	return tuning, err
}

func (p persistence) DeleteFanTuning(fanId string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketFanTuning))
		if b == nil {
			// no tuning bucket yet
			return nil
		}
		v := b.Get([]byte(fanId))
		if v == nil {
			// no data for given key
			return nil
		}

		return b.Delete([]byte(fanId))
	})
}
