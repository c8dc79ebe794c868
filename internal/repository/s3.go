package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/modvault/wikidraft/internal/cache"
	"github.com/modvault/wikidraft/internal/model"
	"github.com/modvault/wikidraft/internal/util"
)

// S3PageRepository keeps wiki pages as markdown objects under
// <namespace>/<name>/<page-id>.md in a single bucket.
type S3PageRepository struct { // implements PageRepository
	client *s3.Client
	bucket string

	pagesCache *cache.Cache[string, *model.WikiPage]

	// sortedMu guards pagesCacheSorted: ReloadPages swaps it in from its
	// own goroutine while request handlers read it.
	sortedMu         sync.RWMutex
	pagesCacheSorted []model.WikiPage

	reloadNotifier func(model.PageID)
}

func NewS3PageRepository(accessKeyID, accessKeySecret, baseEndpoint, region, bucket string) *S3PageRepository {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		repoLogger.Fatal().Err(err).Msg("Error initializing S3 client")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if baseEndpoint != "" {
			o.BaseEndpoint = aws.String(baseEndpoint)
		}
	})

	return &S3PageRepository{
		client: client,
		bucket: bucket,

		pagesCache: cache.NewCache[string, *model.WikiPage](),
	}
}

func (r *S3PageRepository) SetReloadNotifier(notifier func(model.PageID)) {
	r.reloadNotifier = notifier
}

func (r *S3PageRepository) notifyPageReload(pageID model.PageID) {
	if r.reloadNotifier != nil {
		r.reloadNotifier(pageID)
	}
}

func (r *S3PageRepository) Init() {
	pages, pageMap, err := r.GetPages()
	if err != nil {
		repoLogger.Fatal().Err(err).Msg("Error initializing wiki pages")
	}

	r.setPageList(pages)
	r.pagesCache.SetTo(pageMap)

	go r.ReloadPages()
}

func (r *S3PageRepository) setPageList(pages []model.WikiPage) {
	r.sortedMu.Lock()
	r.pagesCacheSorted = pages
	r.sortedMu.Unlock()
}

func (r *S3PageRepository) GetPageList() []model.WikiPage {
	r.sortedMu.RLock()
	defer r.sortedMu.RUnlock()
	return r.pagesCacheSorted
}

func (r *S3PageRepository) GetPagesForPackage(pkg model.PackageRef) []model.WikiPage {
	var pages []model.WikiPage
	for _, page := range r.GetPageList() {
		if page.Pkg == pkg {
			pages = append(pages, page)
		}
	}
	return pages
}

func (r *S3PageRepository) GetPages() ([]model.WikiPage, map[string]*model.WikiPage, error) {
	var pages []model.WikiPage
	pageMap := make(map[string]*model.WikiPage)

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
	})

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(context.TODO())
		if err != nil {
			return nil, nil, fmt.Errorf("error listing wiki page objects: %w", err)
		}

		for _, entry := range out.Contents {
			key := aws.ToString(entry.Key)
			if !strings.HasSuffix(key, ".md") {
				continue
			}

			// namespace/name/page-id.md
			parts := strings.Split(key, "/")
			if len(parts) != 3 {
				repoLogger.Warn().Str("key", key).Msg("Skipping object outside namespace/name layout")
				continue
			}

			mdContent, err := r.readObject(key)
			if err != nil {
				return nil, nil, err
			}

			page := model.WikiPage{
				ID:            model.PageID(strings.TrimSuffix(parts[2], ".md")),
				Pkg:           model.PackageRef{Namespace: parts[0], Name: parts[1]},
				Markdown:      mdContent,
				MDContentHash: util.ContentHash(mdContent),
			}
			if entry.LastModified != nil {
				page.ModifiedDate = *entry.LastModified
			}

			if fm, err := util.GetFrontMatter(mdContent); err == nil && fm.Title != "" {
				page.Title = fm.Title
			} else {
				page.Title = string(page.ID)
			}

			pages = append(pages, page)
		}
	}

	slices.SortStableFunc(pages, func(a, b model.WikiPage) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})

	// Build the map after sorting so the pointers land in the slice's
	// final backing array.
	for i := range pages {
		pageMap[string(pages[i].ID)] = &pages[i]
	}

	return pages, pageMap, nil
}

func (r *S3PageRepository) readObject(key string) ([]byte, error) {
	out, err := r.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching wiki page object %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (r *S3PageRepository) ReadPage(id model.PageID) (*model.WikiPage, error) {
	page, ok := r.pagesCache.Get(string(id))
	if !ok {
		return nil, fmt.Errorf("wiki page not found: %s", id)
	}
	return page, nil
}

func (r *S3PageRepository) ReloadPages() {
	for {
		time.Sleep(30 * time.Second)

		pages, pageMap, err := r.GetPages()
		if err != nil {
			repoLogger.Error().Err(err).Msg("Error reloading wiki pages")
			continue
		}

		current := r.GetPageList()
		cachedPages := make(map[string]*model.WikiPage)
		for i := range current {
			cachedPages[string(current[i].ID)] = &current[i]
		}

		hasChanges := len(pages) != len(current)
		for _, newPage := range pages {
			cached, exists := cachedPages[string(newPage.ID)]
			if !exists {
				hasChanges = true
				continue
			}
			if newPage.MDContentHash != cached.MDContentHash {
				hasChanges = true
				go r.notifyPageReload(newPage.ID)
			}
		}

		if hasChanges {
			r.setPageList(pages)
			r.pagesCache.SetTo(pageMap)
		}
	}
}

func (r *S3PageRepository) NewPage(pkg model.PackageRef) *model.WikiPage {
	now := time.Now().UTC()

	return &model.WikiPage{
		ID:  model.PageID(uuid.New().String()),
		Pkg: pkg,

		CreatedDate:  now,
		ModifiedDate: now,
	}
}

func (r *S3PageRepository) pageKey(page *model.WikiPage) string {
	return page.Pkg.Namespace + "/" + page.Pkg.Name + "/" + string(page.ID) + ".md"
}

func (r *S3PageRepository) SavePage(page *model.WikiPage) error {
	page.MDContentHash = util.ContentHash(page.Markdown)

	_, err := r.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.pageKey(page)),
		Body:        bytes.NewReader(page.Markdown),
		ContentType: aws.String("text/markdown"),
	})
	if err != nil {
		return fmt.Errorf("error saving wiki page object: %w", err)
	}
	return nil
}

func (r *S3PageRepository) SetPageContent(page *model.WikiPage) error {
	page.ModifiedDate = time.Now().UTC()
	return r.SavePage(page)
}
