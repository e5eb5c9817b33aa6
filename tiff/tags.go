package tiff

// Tag codes enumerating the full TIFF 6.0 + GeoTIFF tag set this parser
// recognizes.
const (
	TagNewSubfileType            = 254
	TagImageWidth                = 256
	TagImageLength               = 257
	TagBitsPerSample             = 258
	TagCompression               = 259
	TagPhotometricInterpretation = 262
	TagFillOrder                 = 266
	TagDocumentName              = 269
	TagPlanarConfiguration       = 284

	TagStripOffsets    = 273
	TagOrientation     = 274
	TagSamplesPerPixel = 277
	TagRowsPerStrip    = 278
	TagStripByteCounts = 279

	TagTileWidth      = 322
	TagTileLength     = 323
	TagTileOffsets    = 324
	TagTileByteCounts = 325

	TagXResolution    = 282
	TagYResolution    = 283
	TagResolutionUnit = 296

	TagSoftware     = 305
	TagDateTime     = 306
	TagPredictor    = 317
	TagColorMap     = 320
	TagExtraSamples = 338
	TagSampleFormat = 339

	TagJPEGTables = 347

	TagGDALMetadata = 42112
	TagGDALNoData   = 42113

	TagModelPixelScaleTag     = 33550
	TagModelTransformationTag = 34264
	TagModelTiepointTag       = 33922
	TagGeoKeyDirectoryTag     = 34735
	TagGeoDoubleParamsTag     = 34736
	TagGeoAsciiParamsTag      = 34737
	TagIntergraphMatrixTag    = 33920

	TagLERCParams = 50674
	TagRPCs       = 50844

	TagGTModelTypeGeoKey    = 1024
	TagGTRasterTypeGeoKey   = 1025
	TagGTCitationGeoKey     = 1026
	TagGeographicTypeGeoKey = 2048
	TagProjectedCSTypeGeoKey = 3072
	TagProjLinearUnitsGeoKey = 3076

	TagPhotoshop = 34377
)

// PlanarConfiguration.
const (
	PlanarConfigContig   = 1
	PlanarConfigSeparate = 2
)

// Predictor.
const (
	PredictorNone          = 1
	PredictorHorizontal    = 2
	PredictorFloatingPoint = 3
)

// SampleFormat.
const (
	SampleFormatUInt   = 1
	SampleFormatInt    = 2
	SampleFormatIEEEFP = 3
	SampleFormatVoid   = 4
)

// ExtraSamples.
const (
	ExtraSamplesUnspecified = 0
	ExtraSamplesAssocAlpha  = 1
	ExtraSamplesUnassAlpha  = 2
)

// PhotometricInterpretation.
const (
	PhotometricWhiteIsZero = 0
	PhotometricBlackIsZero = 1
	PhotometricRGB         = 2
	PhotometricPalette     = 3
	PhotometricMask        = 4
	PhotometricSeparated   = 5
	PhotometricYCbCr       = 6
	PhotometricCIELab      = 8
)

// CompressionType.
const (
	CompressionNone       = 1
	CompressionCCITT      = 2
	CompressionG3         = 3
	CompressionG4         = 4
	CompressionLZW        = 5
	CompressionJPEGOld    = 6
	CompressionJPEG       = 7
	CompressionDeflate    = 8
	CompressionPackBits   = 32773
	CompressionDeflateOld = 32946
)

// GeoKey IDs used to recover an EPSG code, per §4.3.
const (
	GeoKeyGTModelType      = 1024
	GeoKeyGeographicType   = 2048
	GeoKeyProjectedCSType  = 3072
	GeoKeyProjLinearUnits  = 3076
)
